package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"campaign-platform/internal/analytics"
	"campaign-platform/internal/auth"
	"campaign-platform/internal/campaigns"
	"campaign-platform/internal/credits"
	"campaign-platform/internal/ledger"
	"campaign-platform/internal/pricing"
	"campaign-platform/internal/rbac"
	"campaign-platform/internal/reporting"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers groups HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.

type Handlers struct {
	Auth      *auth.Manager
	Credits   *credits.Service
	Campaigns *campaigns.Service
	Analytics *analytics.Service
	Reporting *reporting.Service
	ABTests   ABTestWriter
}

// ABTestWriter persists A/B test definitions. reporting repositories satisfy it.
type ABTestWriter interface {
	PutABTest(ctx context.Context, test reporting.ABTest) error
}

// statusFor maps service sentinel errors to HTTP statuses. Unknown errors are
// 500 and their details stay out of the response body.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, credits.ErrInsufficientCredits):
		return http.StatusPaymentRequired, err.Error()
	case errors.Is(err, campaigns.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	case errors.Is(err, campaigns.ErrNotFound),
		errors.Is(err, reporting.ErrNotFound),
		errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, campaigns.ErrInvalidArgument),
		errors.Is(err, credits.ErrInvalidArgument),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrInvalidArgument),
		errors.Is(err, pricing.ErrInvalidEstimateReq),
		errors.Is(err, pricing.ErrRateNotFound),
		errors.Is(err, analytics.ErrInvalidInteraction),
		errors.Is(err, reporting.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func abortErr(c *gin.Context, err error) {
	code, msg := statusFor(err)
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

func orgFrom(c *gin.Context) (string, bool) {
	orgID, err := auth.OrgID(c.Request.Context())
	if err != nil || orgID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "org_id required"})
		return "", false
	}
	return orgID, true
}

// --- Auth ---

type loginRequest struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Role   string `json:"role"`
}

// Login issues a JWT token pair.
//
// NOTE: This is a skeleton-only endpoint. Real systems must validate credentials.
func (h Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.UserID == "" || req.OrgID == "" || req.Role == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "user_id, org_id, role required"})
		return
	}
	pair, err := h.Auth.IssuePair(time.Now(), req.UserID, req.OrgID, req.Role)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token issuance failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": pair.AccessToken, "refresh_token": pair.RefreshToken})
}

// --- Credits ---

type purchaseRequest struct {
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

type refundRequest struct {
	Amount      int64  `json:"amount"`
	ReferenceID string `json:"reference_id"`
}

type adjustRequest struct {
	Amount int64  `json:"amount"`
	Kind   string `json:"kind"`
	Reason string `json:"reason"`
}

func (h Handlers) GetBalance(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	bal, err := h.Credits.Balance(c.Request.Context(), orgID)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"org_id": orgID, "balance": bal})
}

func (h Handlers) GetHistory(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.Query("page"))
	pageSize, _ := strconv.Atoi(c.Query("page_size"))
	out, err := h.Credits.History(c.Request.Context(), orgID, page, pageSize)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) Purchase(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	tx, err := h.Credits.Purchase(c.Request.Context(), orgID, req.Amount, req.Description)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

func (h Handlers) Refund(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	var req refundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	tx, err := h.Credits.Refund(c.Request.Context(), orgID, req.Amount, req.ReferenceID)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// AdminAdjustCredits performs a privileged balance correction.
// RBAC: owner, finance or super_admin (enforced by route middleware).
func (h Handlers) AdminAdjustCredits(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	adminUserID, _ := auth.UserID(c.Request.Context())
	adminRole, _ := auth.Role(c.Request.Context())

	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	tx, err := h.Credits.AdminAdjust(c.Request.Context(), orgID, adminUserID, adminRole, req.Amount, ledger.Kind(req.Kind), req.Reason)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// --- Campaigns ---

type createCampaignRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Category     string `json:"category"`
	ContactCount int    `json:"contact_count"`
}

type completeCampaignRequest struct {
	UndeliveredContacts int `json:"undelivered_contacts"`
}

func (h Handlers) CreateCampaign(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	var req createCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	camp, err := h.Campaigns.Create(c.Request.Context(), campaigns.CreateRequest{
		OrgID:        orgID,
		Name:         req.Name,
		Type:         campaigns.Type(req.Type),
		Category:     pricing.Category(req.Category),
		ContactCount: req.ContactCount,
	})
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, camp)
}

func (h Handlers) GetCampaign(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	camp, err := h.Campaigns.Get(c.Request.Context(), orgID, c.Param("campaign_id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, camp)
}

func (h Handlers) EstimateCampaign(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	est, err := h.Campaigns.Estimate(c.Request.Context(), orgID, c.Param("campaign_id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, est)
}

func (h Handlers) LaunchCampaign(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	camp, tx, err := h.Campaigns.Launch(c.Request.Context(), orgID, c.Param("campaign_id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaign": camp, "transaction": tx})
}

func (h Handlers) transitionHandler(fn func(c *gin.Context, orgID, id string) (campaigns.Campaign, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID, ok := orgFrom(c)
		if !ok {
			return
		}
		camp, err := fn(c, orgID, c.Param("campaign_id"))
		if err != nil {
			abortErr(c, err)
			return
		}
		c.JSON(http.StatusOK, camp)
	}
}

func (h Handlers) ActivateCampaign() gin.HandlerFunc {
	return h.transitionHandler(func(c *gin.Context, orgID, id string) (campaigns.Campaign, error) {
		return h.Campaigns.Activate(c.Request.Context(), orgID, id)
	})
}

func (h Handlers) PauseCampaign() gin.HandlerFunc {
	return h.transitionHandler(func(c *gin.Context, orgID, id string) (campaigns.Campaign, error) {
		return h.Campaigns.Pause(c.Request.Context(), orgID, id)
	})
}

func (h Handlers) ResumeCampaign() gin.HandlerFunc {
	return h.transitionHandler(func(c *gin.Context, orgID, id string) (campaigns.Campaign, error) {
		return h.Campaigns.Resume(c.Request.Context(), orgID, id)
	})
}

func (h Handlers) CompleteCampaign(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	var req completeCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	camp, err := h.Campaigns.Complete(c.Request.Context(), orgID, c.Param("campaign_id"), req.UndeliveredContacts)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, camp)
}

// --- Analytics ---

// IngestInteraction accepts a single interaction event from the delivery
// layer. Duplicate IDs are accepted and ignored, so callers can retry freely.
func (h Handlers) IngestInteraction(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	var in analytics.Interaction
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	// The caller's org always wins over whatever the payload claims.
	in.OrgID = orgID
	if err := h.Analytics.Ingest(c.Request.Context(), in); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h Handlers) GetSnapshot(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	scope := analytics.Scope{OrgID: orgID, CampaignID: c.Query("campaign_id")}
	f := analytics.Filters{
		Carrier: c.Query("carrier"),
		Status:  analytics.InteractionStatus(c.Query("status")),
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "from must be RFC3339"})
			return
		}
		f.From = t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "to must be RFC3339"})
			return
		}
		f.To = t
	}
	snap, err := h.Analytics.Snapshot(c.Request.Context(), scope, f)
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// --- Reporting ---

type createABTestRequest struct {
	Name     string `json:"name"`
	Variants []struct {
		Name       string `json:"name"`
		CampaignID string `json:"campaign_id"`
	} `json:"variants"`
}

func (h Handlers) CreateABTest(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	var req createABTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.Name == "" || len(req.Variants) < 2 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "name and at least two variants required"})
		return
	}
	test := reporting.ABTest{
		ID:     uuid.NewString(),
		OrgID:  orgID,
		Name:   req.Name,
		Status: reporting.ABTestStatusRunning,
	}
	for _, v := range req.Variants {
		if v.Name == "" || v.CampaignID == "" {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "variant name and campaign_id required"})
			return
		}
		test.Variants = append(test.Variants, reporting.Variant{Name: v.Name, CampaignID: v.CampaignID})
	}
	if err := h.ABTests.PutABTest(c.Request.Context(), test); err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, test)
}

func (h Handlers) GetCampaignROI(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	roi, err := h.Reporting.ROI(c.Request.Context(), orgID, c.Param("campaign_id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, roi)
}

func (h Handlers) GetABTestResult(c *gin.Context) {
	orgID, ok := orgFrom(c)
	if !ok {
		return
	}
	res, err := h.Reporting.ABTestResult(c.Request.Context(), orgID, c.Param("test_id"))
	if err != nil {
		abortErr(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Convenience middleware bundles.

func RequireOrgAndAnyRole(roles ...string) []gin.HandlerFunc {
	return []gin.HandlerFunc{rbac.RequireOrg(), rbac.RequireAnyRole(roles...)}
}
