package services

import (
	"fmt"
	"net"
	"sync"

	"inteqt-web/backend/system"

	"github.com/oschwald/geoip2-golang"
)

// GeoIPService resolves client IPs to countries from a MaxMind database.
// Without a database every lookup returns "".
type GeoIPService struct {
	mu     sync.RWMutex
	reader *geoip2.Reader
}

// NewGeoIPService opens the database at dbPath. An empty path disables lookups.
func NewGeoIPService(dbPath string) (*GeoIPService, error) {
	g := &GeoIPService{}
	if dbPath == "" {
		return g, nil
	}
	reader, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	g.reader = reader
	system.Info("GeoIP database loaded: %s", dbPath)
	return g, nil
}

// CountryCode implements CountryResolver.
func (g *GeoIPService) CountryCode(ipStr string) string {
	ip := net.ParseIP(ipStr)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() {
		return ""
	}

	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.reader == nil {
		return ""
	}

	record, err := g.reader.Country(ip)
	if err != nil {
		system.Debug("GeoIP lookup failed for %s: %v", ipStr, err)
		return ""
	}
	return record.Country.IsoCode
}

// Close releases the database.
func (g *GeoIPService) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.reader == nil {
		return nil
	}
	err := g.reader.Close()
	g.reader = nil
	return err
}
