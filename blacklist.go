package roma

import (
	"context"
	"errors"
	"net/netip"
	"strings"
)

const defaultBlacklistPageSize = 20

// ListBlacklist lists one page of banned addresses. Pages start at 1; a
// page size below 1 uses the default of 20.
func (c *Client) ListBlacklist(ctx context.Context, page, pageSize int) (*BlacklistPage, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultBlacklistPageSize
	}
	return c.apiClient.GetBlacklist(ctx, page, pageSize)
}

// GetBlacklistEntry retrieves the ban record and geolocation for ip.
func (c *Client) GetBlacklistEntry(ctx context.Context, ip string) (*BlacklistDetail, error) {
	addr, err := parseIP(ip)
	if err != nil {
		return nil, err
	}
	return c.apiClient.GetBlacklistEntry(ctx, addr)
}

// AddToBlacklist bans req.IP. A zero Duration bans permanently.
func (c *Client) AddToBlacklist(ctx context.Context, req BlacklistRequest) error {
	addr, err := parseIP(req.IP)
	if err != nil {
		return err
	}
	if req.Duration < 0 {
		return &ValidationError{Field: "duration", Err: errors.New("must not be negative")}
	}
	req.IP = addr
	return c.apiClient.AddToBlacklist(ctx, req)
}

// RemoveFromBlacklist lifts the ban on ip.
func (c *Client) RemoveFromBlacklist(ctx context.Context, ip string) error {
	addr, err := parseIP(ip)
	if err != nil {
		return err
	}
	return c.apiClient.RemoveFromBlacklist(ctx, addr)
}

// IPInfo retrieves geolocation for any address.
func (c *Client) IPInfo(ctx context.Context, ip string) (*IPInfo, error) {
	addr, err := parseIP(ip)
	if err != nil {
		return nil, err
	}
	return c.apiClient.GetIPInfo(ctx, addr)
}

// parseIP returns ip in canonical form. IPv4-mapped IPv6 addresses are
// reduced to IPv4.
func parseIP(ip string) (string, error) {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", &ValidationError{Field: "ip", Value: ip, Err: ErrInvalidIP}
	}
	return addr.Unmap().String(), nil
}
