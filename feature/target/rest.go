package target

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// restClient implements Client against the policy backend's REST API.
type restClient struct {
	base     string
	user     string
	password string
	http     *http.Client
}

// NewRestClient creates a REST client for the policy backend.
func NewRestClient(cfg Config) (Client, error) {
	base := strings.TrimSuffix(cfg.Endpoint, "/")
	if base == "" {
		return nil, fmt.Errorf("target endpoint is required")
	}

	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ResponseHeaderTimeout: timeoutDuration,
		TLSClientConfig:       &tls.Config{InsecureSkipVerify: cfg.InsecureSkipVerify},
	}

	return &restClient{
		base:     base,
		user:     cfg.User,
		password: cfg.Password,
		http:     &http.Client{Transport: transport, Timeout: timeoutDuration},
	}, nil
}

// do performs one JSON round trip and maps backend status codes onto the
// package's error kinds.
func (c *restClient) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.user, c.password)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, ErrNotFound)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%s %s: %w", method, path, ErrAlreadyExists)
	case resp.StatusCode == http.StatusPreconditionFailed:
		return fmt.Errorf("%s %s: %w", method, path, ErrConflict)
	case resp.StatusCode >= 400:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

func (c *restClient) ListRevisions(ctx context.Context, kind Kind) (map[string]string, error) {
	var out struct {
		Revisions map[string]string `json:"revisions"`
	}
	q := url.Values{"kind": []string{string(kind)}}
	if err := c.do(ctx, http.MethodGet, "/api/v1/revisions", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Revisions, nil
}

func (c *restClient) ListAddressSets(ctx context.Context) (map[string]string, error) {
	var out struct {
		Refs map[string]string `json:"refs"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/address-sets", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Refs, nil
}

func (c *restClient) ListSectionRules(ctx context.Context, sectionID string) (map[string]RuleMeta, error) {
	var out struct {
		Rules map[string]RuleMeta `json:"rules"`
	}
	path := "/api/v1/sections/" + url.PathEscape(sectionID) + "/rules"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Rules, nil
}

func (c *restClient) GetOrCreateSecurityGroup(ctx context.Context, id string) (SecurityGroupRefs, error) {
	var refs SecurityGroupRefs
	path := "/api/v1/security-groups/" + url.PathEscape(id)

	err := c.do(ctx, http.MethodGet, path, nil, nil, &refs)
	if err == nil {
		return refs, nil
	}
	if !isNotFound(err) {
		return refs, err
	}

	err = c.do(ctx, http.MethodPost, path, nil, nil, &refs)
	if err != nil && isAlreadyExists(err) {
		// Lost the creation race; the group is there now.
		err = c.do(ctx, http.MethodGet, path, nil, nil, &refs)
	}
	return refs, err
}

func (c *restClient) UpdateSecurityGroupCapabilities(ctx context.Context, id string, tcpStrict bool) error {
	in := map[string]bool{"tcp_strict": tcpStrict}
	path := "/api/v1/security-groups/" + url.PathEscape(id) + "/capabilities"
	return c.do(ctx, http.MethodPut, path, nil, in, nil)
}

func (c *restClient) UpdateSecurityGroupMembers(ctx context.Context, id string, cidrs []string) error {
	in := map[string][]string{"cidrs": cidrs}
	path := "/api/v1/security-groups/" + url.PathEscape(id) + "/members"
	return c.do(ctx, http.MethodPut, path, nil, in, nil)
}

func (c *restClient) UpdateSecurityGroupRules(ctx context.Context, id string, revision int64, add []FirewallRule, del []string) error {
	in := struct {
		Revision int64          `json:"revision"`
		Add      []FirewallRule `json:"add"`
		Delete   []string       `json:"delete"`
	}{Revision: revision, Add: add, Delete: del}
	path := "/api/v1/security-groups/" + url.PathEscape(id) + "/rules"
	return c.do(ctx, http.MethodPut, path, nil, in, nil)
}

func (c *restClient) DeleteSecurityGroup(ctx context.Context, id string) error {
	path := "/api/v1/security-groups/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *restClient) CreateQosProfile(ctx context.Context, id string, revision int64) error {
	in := struct {
		ID       string `json:"id"`
		Revision int64  `json:"revision"`
	}{ID: id, Revision: revision}
	return c.do(ctx, http.MethodPost, "/api/v1/qos-profiles", nil, in, nil)
}

func (c *restClient) UpdateQosProfile(ctx context.Context, id string, revision int64, rules []QosRule) error {
	in := struct {
		Revision int64     `json:"revision"`
		Rules    []QosRule `json:"rules"`
	}{Revision: revision, Rules: rules}
	path := "/api/v1/qos-profiles/" + url.PathEscape(id)
	return c.do(ctx, http.MethodPut, path, nil, in, nil)
}

func (c *restClient) DeleteQosProfile(ctx context.Context, id string) error {
	path := "/api/v1/qos-profiles/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *restClient) UpdatePort(ctx context.Context, port PortSpec) error {
	path := "/api/v1/ports/" + url.PathEscape(port.ID)
	return c.do(ctx, http.MethodPut, path, nil, port, nil)
}

func (c *restClient) DeletePort(ctx context.Context, id string) error {
	path := "/api/v1/ports/" + url.PathEscape(id)
	return c.do(ctx, http.MethodDelete, path, nil, nil, nil)
}

func (c *restClient) SwitchForSegment(ctx context.Context, segmentationID int) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	q := url.Values{"segmentation_id": []string{strconv.Itoa(segmentationID)}}
	if err := c.do(ctx, http.MethodGet, "/api/v1/switches", q, nil, &out); err != nil {
		return "", err
	}
	return out.ID, nil
}

func (c *restClient) GetMarker(ctx context.Context, name string) (time.Time, error) {
	var out struct {
		Timestamp string `json:"timestamp"`
	}
	path := "/api/v1/markers/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, out.Timestamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("marker %s: %w", name, err)
	}
	return ts, nil
}

func (c *restClient) SetMarker(ctx context.Context, name string, ts time.Time) error {
	in := map[string]string{"timestamp": ts.UTC().Format(time.RFC3339)}
	path := "/api/v1/markers/" + url.PathEscape(name)
	return c.do(ctx, http.MethodPut, path, nil, in, nil)
}
