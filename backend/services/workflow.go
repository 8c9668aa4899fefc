package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"inteqt-web/backend/config"
	"inteqt-web/backend/models"
	"inteqt-web/backend/system"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Notifier is told about workflow events. Implementations must not block.
type Notifier interface {
	SubmissionReceived(p *models.CountryProfile, owner *models.Account, isUpdate bool)
	SubmissionReviewed(p *models.CountryProfile, reviewer *models.Account)
}

// WorkflowService owns the CountryProfile submission and review lifecycle.
type WorkflowService struct {
	db       *gorm.DB
	cfg      config.Workflow
	media    MediaStore
	notifier Notifier
	now      func() time.Time
}

// NewWorkflowService creates the workflow service. media and notifier may be nil.
func NewWorkflowService(db *gorm.DB, cfg config.Workflow, media MediaStore, notifier Notifier) *WorkflowService {
	return &WorkflowService{
		db:       db,
		cfg:      cfg,
		media:    media,
		notifier: notifier,
		now:      time.Now,
	}
}

// ProfileInput is the client-supplied body of a submission or draft.
// ID targets an existing record; otherwise the slug does.
type ProfileInput struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
	models.ProfileFields
	References    ReferenceList `json:"references"`
	ImageURL      string        `json:"image_url"`
	ImagePublicID string        `json:"image_public_id"`
}

// ListQuery filters and paginates listings.
type ListQuery struct {
	Status models.Status
	Page   int
	Limit  int
}

// Page is one page of a listing.
type Page struct {
	Countries []models.CountryProfile `json:"countries"`
	Total     int64                   `json:"total"`
	Page      int                     `json:"page"`
	Limit     int                     `json:"limit"`
	Pages     int                     `json:"pages"`
}

// Summary groups an owner's records by status.
type Summary struct {
	Pending  []models.CountryProfile `json:"pending"`
	Approved []models.CountryProfile `json:"approved"`
	Rejected []models.CountryProfile `json:"rejected"`
	Draft    []models.CountryProfile `json:"draft"`
	Counts   map[models.Status]int   `json:"counts"`
}

// CreateOrUpdate validates and persists a submission with status pending.
// The bool result reports whether an existing record was updated.
func (s *WorkflowService) CreateOrUpdate(ctx context.Context, owner *models.Account, in ProfileInput) (*models.CountryProfile, bool, error) {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Name = strings.TrimSpace(in.Name)
	if !ValidSlug(in.Slug) {
		return nil, false, BadRequest("Invalid slug format")
	}
	if in.Name == "" {
		return nil, false, BadRequest("Name is required")
	}
	return s.write(ctx, owner, in, models.StatusPending)
}

// SaveDraft persists a draft. Unlike CreateOrUpdate the slug may be empty.
func (s *WorkflowService) SaveDraft(ctx context.Context, owner *models.Account, in ProfileInput) (*models.CountryProfile, bool, error) {
	in.Slug = strings.TrimSpace(in.Slug)
	in.Name = strings.TrimSpace(in.Name)
	if in.Slug != "" && !ValidSlug(in.Slug) {
		return nil, false, BadRequest("Invalid slug format")
	}
	return s.write(ctx, owner, in, models.StatusDraft)
}

// UpdateOwn applies a submission to the record with the given id.
func (s *WorkflowService) UpdateOwn(ctx context.Context, requester *models.Account, id string, in ProfileInput) (*models.CountryProfile, error) {
	in.ID = id
	p, _, err := s.CreateOrUpdate(ctx, requester, in)
	return p, err
}

func (s *WorkflowService) write(ctx context.Context, owner *models.Account, in ProfileInput, status models.Status) (*models.CountryProfile, bool, error) {
	existing, err := s.resolveTarget(ctx, owner, in)
	if err != nil {
		return nil, false, err
	}
	if in.References != nil {
		if err := checkReferences(in.References); err != nil {
			return nil, false, err
		}
	}
	if err := s.checkImage(ctx, in, existing); err != nil {
		return nil, false, err
	}

	if existing == nil {
		p := &models.CountryProfile{OwnerID: owner.ID, Status: status}
		applyInput(p, in)
		if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
			return nil, false, storeError(err, "Slug exists", "")
		}
		system.Info("Submission %s created by %s (%s)", p.ID, owner.Email, status)
		s.notifyReceived(p, owner, false)
		return p, false, nil
	}

	oldImage := existing.ImagePublicID
	applyInput(existing, in)
	existing.Status = status
	existing.RejectionNote = ""
	if err := s.save(ctx, existing); err != nil {
		return nil, false, storeError(err, "Slug exists", "")
	}
	if oldImage != "" && oldImage != existing.ImagePublicID {
		s.deleteImage(ctx, oldImage, existing.ID)
	}
	system.Info("Submission %s updated by %s (%s)", existing.ID, owner.Email, status)
	s.notifyReceived(existing, owner, true)
	return existing, true, nil
}

// resolveTarget finds the record a write applies to, or nil for a new one.
func (s *WorkflowService) resolveTarget(ctx context.Context, requester *models.Account, in ProfileInput) (*models.CountryProfile, error) {
	var target *models.CountryProfile
	if in.ID != "" {
		p, err := s.find(ctx, "id = ?", in.ID)
		if err != nil {
			return nil, err
		}
		if err := canEdit(requester, p); err != nil {
			return nil, err
		}
		target = p
	}

	if in.Slug == "" {
		return target, nil
	}

	var bySlug models.CountryProfile
	err := s.db.WithContext(ctx).Where("slug = ?", in.Slug).First(&bySlug).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return target, nil
	case err != nil:
		return nil, Internal(err)
	}

	if target != nil {
		if bySlug.ID != target.ID {
			return nil, Conflict("Slug exists")
		}
		return target, nil
	}
	if bySlug.OwnerID != requester.ID {
		return nil, Conflict("Slug exists")
	}
	if err := canEdit(requester, &bySlug); err != nil {
		return nil, err
	}
	return &bySlug, nil
}

// canEdit enforces who may write a record: admins always; owners unless approved.
func canEdit(requester *models.Account, p *models.CountryProfile) error {
	if requester.IsAdmin() {
		return nil
	}
	if p.OwnerID != requester.ID {
		return Forbidden("You do not own this submission")
	}
	if p.Status == models.StatusApproved {
		return Forbidden("Approved submissions can only be changed by an admin")
	}
	return nil
}

func applyInput(p *models.CountryProfile, in ProfileInput) {
	if in.Name != "" {
		p.Name = in.Name
	}
	if in.Slug != "" {
		slug := in.Slug
		p.Slug = &slug
	}
	p.ProfileFields = in.ProfileFields
	if in.References != nil {
		p.References = []string(in.References)
	}
	if in.ImageURL != "" {
		p.ImageURL = in.ImageURL
		p.ImagePublicID = in.ImagePublicID
	}
}

// checkImage vets a new image. An id must be one the media store issued,
// paired with the store's URL for it, and unused by any other record.
// Without an id the URL must be an absolute http(s) URL.
func (s *WorkflowService) checkImage(ctx context.Context, in ProfileInput, target *models.CountryProfile) error {
	if in.ImageURL == "" {
		return nil
	}
	if in.ImagePublicID == "" {
		if !ValidReference(in.ImageURL) {
			return BadRequest("Invalid image URL")
		}
		return nil
	}
	if s.media == nil || !publicIDPattern.MatchString(in.ImagePublicID) || in.ImageURL != s.media.URLFor(in.ImagePublicID) {
		return BadRequest("Invalid image reference")
	}

	targetID := ""
	if target != nil {
		targetID = target.ID
	}
	used, err := s.imageUsedElsewhere(ctx, in.ImagePublicID, targetID)
	if err != nil {
		return Internal(err)
	}
	if used {
		return Conflict("Image is used by another submission")
	}
	return nil
}

func (s *WorkflowService) imageUsedElsewhere(ctx context.Context, publicID, excludeID string) (bool, error) {
	var n int64
	q := s.db.WithContext(ctx).Model(&models.CountryProfile{}).Where("image_public_id = ?", publicID)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

// deleteImage removes a replaced image unless another record still shows it.
func (s *WorkflowService) deleteImage(ctx context.Context, publicID, recordID string) {
	if s.media == nil {
		return
	}
	used, err := s.imageUsedElsewhere(ctx, publicID, recordID)
	if err != nil || used {
		system.Warn("Keeping replaced image %s: still referenced (err=%v)", publicID, err)
		return
	}
	if err := s.media.Delete(ctx, publicID); err != nil {
		system.Warn("Failed to delete replaced image %s: %v", publicID, err)
	}
}

func (s *WorkflowService) notifyReceived(p *models.CountryProfile, owner *models.Account, isUpdate bool) {
	if s.notifier != nil && p.Status == models.StatusPending {
		s.notifier.SubmissionReceived(p, owner, isUpdate)
	}
}

func (s *WorkflowService) find(ctx context.Context, query string, args ...interface{}) (*models.CountryProfile, error) {
	var p models.CountryProfile
	if err := s.db.WithContext(ctx).Where(query, args...).First(&p).Error; err != nil {
		return nil, storeError(err, "", "Submission not found")
	}
	return &p, nil
}

func (s *WorkflowService) save(ctx context.Context, p *models.CountryProfile) error {
	if p.References == nil {
		p.References = []string{}
	}
	return s.db.WithContext(ctx).Omit(clause.Associations).Save(p).Error
}

// Get returns a record by slug. Approved records are public; others are
// visible to their owner and admins only.
func (s *WorkflowService) Get(ctx context.Context, viewer *models.Account, slug string) (*models.CountryProfile, error) {
	p, err := s.find(ctx, "slug = ?", slug)
	if err != nil {
		return nil, err
	}
	if p.Status == models.StatusApproved || viewer.IsAdmin() || (viewer != nil && viewer.ID == p.OwnerID) {
		return p, nil
	}
	return nil, NotFound("Submission not found")
}

// GetByID returns a record to its owner or an admin.
func (s *WorkflowService) GetByID(ctx context.Context, viewer *models.Account, id string) (*models.CountryProfile, error) {
	p, err := s.find(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if !viewer.IsAdmin() && viewer.ID != p.OwnerID {
		return nil, Forbidden("You do not own this submission")
	}
	return p, nil
}

// ListMine pages through the owner's records, newest first.
func (s *WorkflowService) ListMine(ctx context.Context, owner *models.Account, q ListQuery) (*Page, error) {
	return s.list(ctx, owner.ID, q)
}

// ListAll pages through every record. Admin only.
func (s *WorkflowService) ListAll(ctx context.Context, admin *models.Account, q ListQuery) (*Page, error) {
	if !admin.IsAdmin() {
		return nil, Forbidden("Admin access required")
	}
	return s.list(ctx, "", q)
}

// list pages through records, restricted to ownerID when set. Unrestricted
// listings carry the owning account.
func (s *WorkflowService) list(ctx context.Context, ownerID string, q ListQuery) (*Page, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, BadRequest("Invalid status filter")
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = s.cfg.DefaultPageSize
	}
	if q.Limit > s.cfg.MaxPageSize {
		q.Limit = s.cfg.MaxPageSize
	}

	filter := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.CountryProfile{})
		if ownerID != "" {
			query = query.Where("owner_id = ?", ownerID)
		}
		if q.Status != "" {
			query = query.Where("status = ?", q.Status)
		}
		return query
	}

	var total int64
	if err := filter().Count(&total).Error; err != nil {
		return nil, Internal(err)
	}

	find := filter()
	if ownerID == "" {
		find = find.Preload("Owner")
	}
	countries := []models.CountryProfile{}
	if err := find.Order("created_at DESC").Offset((q.Page - 1) * q.Limit).Limit(q.Limit).Find(&countries).Error; err != nil {
		return nil, Internal(err)
	}

	return &Page{
		Countries: countries,
		Total:     total,
		Page:      q.Page,
		Limit:     q.Limit,
		Pages:     int(math.Ceil(float64(total) / float64(q.Limit))),
	}, nil
}

// SummaryMine returns every owned record grouped by status.
func (s *WorkflowService) SummaryMine(ctx context.Context, owner *models.Account) (*Summary, error) {
	var all []models.CountryProfile
	if err := s.db.WithContext(ctx).Where("owner_id = ?", owner.ID).Order("created_at DESC").Find(&all).Error; err != nil {
		return nil, Internal(err)
	}

	sum := &Summary{
		Pending:  []models.CountryProfile{},
		Approved: []models.CountryProfile{},
		Rejected: []models.CountryProfile{},
		Draft:    []models.CountryProfile{},
		Counts:   make(map[models.Status]int, len(models.Statuses)),
	}
	for _, st := range models.Statuses {
		sum.Counts[st] = 0
	}
	for _, p := range all {
		switch p.Status {
		case models.StatusPending:
			sum.Pending = append(sum.Pending, p)
		case models.StatusApproved:
			sum.Approved = append(sum.Approved, p)
		case models.StatusRejected:
			sum.Rejected = append(sum.Rejected, p)
		case models.StatusDraft:
			sum.Draft = append(sum.Draft, p)
		default:
			continue
		}
		sum.Counts[p.Status]++
	}
	return sum, nil
}

// AdminStats counts every record by status. Admin only.
func (s *WorkflowService) AdminStats(ctx context.Context, admin *models.Account) (*models.StatusCounts, error) {
	if !admin.IsAdmin() {
		return nil, Forbidden("Admin access required")
	}
	return s.stats(ctx, "")
}

// MyStats counts the owner's records by status.
func (s *WorkflowService) MyStats(ctx context.Context, owner *models.Account) (*models.StatusCounts, error) {
	return s.stats(ctx, owner.ID)
}

func (s *WorkflowService) stats(ctx context.Context, ownerID string) (*models.StatusCounts, error) {
	count := func(status models.Status) (int64, error) {
		q := s.db.WithContext(ctx).Model(&models.CountryProfile{})
		if ownerID != "" {
			q = q.Where("owner_id = ?", ownerID)
		}
		if status != "" {
			q = q.Where("status = ?", status)
		}
		var n int64
		err := q.Count(&n).Error
		return n, err
	}

	var out models.StatusCounts
	var err error
	if out.Total, err = count(""); err != nil {
		return nil, Internal(err)
	}
	if out.Pending, err = count(models.StatusPending); err != nil {
		return nil, Internal(err)
	}
	if out.Approved, err = count(models.StatusApproved); err != nil {
		return nil, Internal(err)
	}
	if out.Rejected, err = count(models.StatusRejected); err != nil {
		return nil, Internal(err)
	}
	return &out, nil
}
