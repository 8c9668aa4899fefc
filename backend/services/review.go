package services

import (
	"context"
	"strings"

	"inteqt-web/backend/models"
	"inteqt-web/backend/system"
)

// ReferenceAction is an admin edit applied to a record's reference list.
type ReferenceAction string

const (
	ReferenceAdd     ReferenceAction = "add"
	ReferenceRemove  ReferenceAction = "remove"
	ReferenceReplace ReferenceAction = "replace"
)

// ReferenceResult is the outcome of a reference edit.
type ReferenceResult struct {
	Country         *models.CountryProfile `json:"country"`
	TotalReferences int                    `json:"totalReferences"`
}

// Review approves or rejects a record. Rejection clears slug and references
// and requires a note. Approval guarantees a unique slug, deriving one from
// the name when absent.
func (s *WorkflowService) Review(ctx context.Context, admin *models.Account, id string, status models.Status, note string) (*models.CountryProfile, error) {
	if !admin.IsAdmin() {
		return nil, Forbidden("Admin access required")
	}
	if status != models.StatusApproved && status != models.StatusRejected {
		return nil, BadRequest("Invalid status: must be approved or rejected")
	}
	note = strings.TrimSpace(note)
	if status == models.StatusRejected && note == "" {
		return nil, BadRequest("Rejection note is required")
	}

	p, err := s.find(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p.Status = status
	p.ReviewedByID = &admin.ID
	p.ReviewedAt = &now

	if status == models.StatusRejected {
		p.Slug = nil
		p.References = []string{}
		p.RejectionNote = note
		if err := s.save(ctx, p); err != nil {
			return nil, Internal(err)
		}
	} else {
		p.RejectionNote = ""
		if err := s.approve(ctx, p); err != nil {
			return nil, err
		}
	}

	system.Info("Submission %s %s by %s (slug=%s)", p.ID, status, admin.Email, p.SlugValue())
	if s.notifier != nil {
		s.notifier.SubmissionReviewed(p, admin)
	}
	return p, nil
}

// approve saves p, allocating base, base-1, base-2, ... when it has no slug.
// Each candidate is checked against other records and the unique index
// catches a concurrent claim, in which case the next suffix is tried.
// At most SlugMaxAttempts candidates are tried.
func (s *WorkflowService) approve(ctx context.Context, p *models.CountryProfile) error {
	if p.Slug != nil {
		if err := s.save(ctx, p); err != nil {
			return storeError(err, "Slug exists", "")
		}
		return nil
	}

	base := GenerateSlug(p.Name)
	for n := 0; n < s.cfg.SlugMaxAttempts; n++ {
		candidate := slugCandidate(base, n)

		taken, err := s.slugTaken(ctx, candidate, p.ID)
		if err != nil {
			return Internal(err)
		}
		if taken {
			continue
		}

		p.Slug = &candidate
		err = s.save(ctx, p)
		if err == nil {
			return nil
		}
		if !isDuplicateKey(err) {
			p.Slug = nil
			return Internal(err)
		}
		system.Warn("Slug %s claimed concurrently, trying next suffix", candidate)
	}

	p.Slug = nil
	return Conflict("Could not allocate a unique slug for " + base)
}

func (s *WorkflowService) slugTaken(ctx context.Context, slug, excludeID string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.CountryProfile{}).
		Where("slug = ? AND id <> ?", slug, excludeID).Count(&n).Error
	return n > 0, err
}

// ManageReferences applies an admin add/remove/replace to a record's references.
func (s *WorkflowService) ManageReferences(ctx context.Context, admin *models.Account, id string, action ReferenceAction, refs []string) (*ReferenceResult, error) {
	if !admin.IsAdmin() {
		return nil, Forbidden("Admin access required")
	}
	switch action {
	case ReferenceAdd, ReferenceRemove, ReferenceReplace:
	default:
		return nil, BadRequest("Invalid action: must be add, remove or replace")
	}
	if refs == nil {
		return nil, BadRequest("References are required")
	}

	refs = NormalizeReferences(refs)
	if action != ReferenceRemove {
		if err := checkReferences(refs); err != nil {
			return nil, err
		}
	}

	p, err := s.find(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if p.Status == models.StatusRejected && action != ReferenceRemove {
		return nil, BadRequest("Rejected submissions carry no references")
	}

	switch action {
	case ReferenceAdd:
		p.References = mergeReferences(p.References, refs)
	case ReferenceRemove:
		p.References = removeReferences(p.References, refs)
	case ReferenceReplace:
		p.References = refs
	}

	if err := s.save(ctx, p); err != nil {
		return nil, Internal(err)
	}
	system.Info("References %s on %s by %s (%d total)", action, p.ID, admin.Email, len(p.References))
	return &ReferenceResult{Country: p, TotalReferences: len(p.References)}, nil
}

// UpdateOwnReferences replaces the references of the owner's draft or
// pending record. A nil refs means the field was absent and is rejected;
// an empty list clears the references. A pending record stays pending and loses its rejection note.
func (s *WorkflowService) UpdateOwnReferences(ctx context.Context, owner *models.Account, id string, refs []string) (*ReferenceResult, error) {
	if refs == nil {
		return nil, BadRequest("References are required")
	}
	p, err := s.find(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != owner.ID {
		return nil, Forbidden("You do not own this submission")
	}
	if p.Status != models.StatusDraft && p.Status != models.StatusPending {
		return nil, BadRequest("References can only be edited on draft or pending submissions")
	}

	refs = NormalizeReferences(refs)
	if err := checkReferences(refs); err != nil {
		return nil, err
	}

	p.References = refs
	if p.Status == models.StatusPending {
		p.RejectionNote = ""
	}
	if err := s.save(ctx, p); err != nil {
		return nil, Internal(err)
	}
	return &ReferenceResult{Country: p, TotalReferences: len(p.References)}, nil
}
