// Package play binds the engine to the billing platform's publishing
// API over HTTP.
package play

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"playprice/core/money"
	"playprice/core/plan"
	"playprice/internal/errors"
)

const latencyToleranceTolerant = "PRODUCT_UPDATE_LATENCY_TOLERANCE_LATENCY_TOLERANT"

// TokenSource supplies the bearer token for API calls. Credential
// acquisition and refresh live outside this tool; a static token is
// all the client needs.
type TokenSource interface {
	Token() (string, error)
}

// StaticToken is a TokenSource wrapping a fixed token string.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token() (string, error) {
	if t == "" {
		return "", errors.Config("API token is empty", nil)
	}
	return string(t), nil
}

// Client wraps low-level HTTP communication with the billing
// platform's publishing API for a single base plan target.
type Client struct {
	logger      *zap.Logger
	baseURL     string
	packageName string
	productID   string
	basePlanID  string
	tokens      TokenSource
	http        *http.Client
}

// NewClient constructs a platform client bound to one package,
// product, and base plan.
func NewClient(logger *zap.Logger, baseURL, packageName, productID, basePlanID string, tokens TokenSource) *Client {
	return &Client{
		logger:      logger,
		baseURL:     baseURL,
		packageName: packageName,
		productID:   productID,
		basePlanID:  basePlanID,
		tokens:      tokens,
		http:        &http.Client{Timeout: 30 * time.Second},
	}
}

// GetBasePlan fetches the target base plan, preferring the dedicated
// endpoint and falling back to a subscription-level lookup when the
// platform does not expose one.
func (c *Client) GetBasePlan(ctx context.Context) (*plan.BasePlan, error) {
	var bp plan.BasePlan
	err := c.do(ctx, http.MethodGet, c.basePlanPath(), nil, nil, &bp)
	if err == nil {
		return &bp, nil
	}
	if !errors.IsType(err, errors.TypeNotFound) {
		return nil, err
	}

	sub, err := c.GetSubscription(ctx)
	if err != nil {
		return nil, err
	}
	for _, candidate := range sub.BasePlans {
		if candidate.BasePlanID == c.basePlanID {
			return candidate, nil
		}
	}
	return nil, errors.NotFound("base plan", c.basePlanID)
}

// GetSubscription fetches the whole subscription product.
func (c *Client) GetSubscription(ctx context.Context) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodGet, c.subscriptionPath(), nil, nil, &sub); err != nil {
		if errors.IsType(err, errors.TypeNotFound) {
			return nil, errors.NotFound("subscription product", c.productID)
		}
		return nil, err
	}
	return &sub, nil
}

// ConvertRegionPrices asks the platform to express an amount in every
// billable region's local currency.
func (c *Client) ConvertRegionPrices(ctx context.Context, amount money.Money) (*ConvertRegionPricesResponse, error) {
	var resp ConvertRegionPricesResponse
	path := c.applicationPath() + "/pricing:convertRegionPrices"
	if err := c.do(ctx, http.MethodPost, path, nil, convertRegionPricesRequest{Price: amount}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PatchRegionalConfigs writes the merged regional configs back through
// a subscription-level patch: the full subscription is fetched, the
// target base plan's regional set replaced, and everything else sent
// back unchanged.
func (c *Client) PatchRegionalConfigs(ctx context.Context, configs plan.MergedConfigSet, regionsVersion string) error {
	sub, err := c.GetSubscription(ctx)
	if err != nil {
		return err
	}

	found := false
	patched := make([]*plan.BasePlan, 0, len(sub.BasePlans))
	for _, bp := range sub.BasePlans {
		if bp.BasePlanID == c.basePlanID {
			found = true
			bp = bp.WithRegionalConfigs(configs)
		}
		patched = append(patched, bp)
	}
	if !found {
		return errors.NotFound("base plan", c.basePlanID)
	}

	body := &Subscription{BasePlans: patched, extra: sub.extra}
	query := url.Values{"updateMask": {"basePlans"}}
	if regionsVersion != "" {
		query.Set("regionsVersion.version", regionsVersion)
	}

	c.logger.Info("patching base plan regional configs",
		zap.String("base_plan", c.basePlanID),
		zap.Int("regions", len(configs)))
	return c.do(ctx, http.MethodPatch, c.subscriptionPath(), query, body, nil)
}

// MigratePrices submits one legacy cohort migration per region.
func (c *Client) MigratePrices(ctx context.Context, regionCodes []string, regionsVersion, cutoffTime, increaseType string) error {
	if len(regionCodes) == 0 {
		return nil
	}

	var version *RegionsVersion
	if regionsVersion != "" {
		version = &RegionsVersion{Version: regionsVersion}
	}

	body := batchMigrateRequest{}
	for _, code := range regionCodes {
		body.Requests = append(body.Requests, migrationRequest{
			PackageName:    c.packageName,
			ProductID:      c.productID,
			BasePlanID:     c.basePlanID,
			RegionsVersion: version,
			RegionalPriceMigrations: []regionalPriceMigration{{
				RegionCode:                    code,
				OldestAllowedPriceVersionTime: cutoffTime,
				PriceIncreaseType:             increaseType,
			}},
			LatencyTolerance: latencyToleranceTolerant,
		})
	}

	path := c.subscriptionPath() + "/basePlans:batchMigratePrices"
	return c.do(ctx, http.MethodPost, path, nil, body, nil)
}

func (c *Client) applicationPath() string {
	return "/androidpublisher/v3/applications/" + url.PathEscape(c.packageName)
}

func (c *Client) subscriptionPath() string {
	return c.applicationPath() + "/subscriptions/" + url.PathEscape(c.productID)
}

func (c *Client) basePlanPath() string {
	return c.subscriptionPath() + "/basePlans/" + url.PathEscape(c.basePlanID)
}

// do performs an authenticated JSON round trip. 404s map to not-found
// errors; other non-2xx responses surface the platform's structured
// message as a validation error for the recovery classifier.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errors.Internal("cannot encode request body", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return errors.Internal("cannot build request", err)
	}
	token, err := c.tokens.Token()
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Network(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Network("cannot read response body", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return errors.NotFound("resource", path)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("platform returned non-2xx",
			zap.Int("status", resp.StatusCode),
			zap.String("path", path))
		return errors.Validation(rejectionMessage(resp.StatusCode, data))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.Parsing("cannot decode response body", err)
		}
	}
	return nil
}

// rejectionMessage extracts the human-readable message from the
// platform's error envelope, falling back to the raw body.
func rejectionMessage(status int, body []byte) string {
	var envelope apiError
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Message != "" {
		return envelope.Error.Message
	}
	return fmt.Sprintf("platform returned %d: %s", status, body)
}
