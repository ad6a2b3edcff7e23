package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/language"

	"github.com/oksasatya/scent-recommender/internal/application"
	"github.com/oksasatya/scent-recommender/internal/domain/entity"
	"github.com/oksasatya/scent-recommender/internal/domain/scent"
	"github.com/oksasatya/scent-recommender/internal/domain/view"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/llm"
	"github.com/oksasatya/scent-recommender/internal/infrastructure/search"
	"github.com/oksasatya/scent-recommender/internal/interface/middleware"
	"github.com/oksasatya/scent-recommender/pkg/response"
	"github.com/oksasatya/scent-recommender/pkg/validation"
)

// PreferenceSearcher looks up the caller's indexed preference snapshot.
type PreferenceSearcher interface {
	Search(ctx context.Context, username, q string, size int) ([]search.Document, error)
}

type PreferenceHandler struct {
	Svc    *application.PreferenceService
	Search PreferenceSearcher
	Logger *logrus.Logger
}

func NewPreferenceHandler(svc *application.PreferenceService, searcher PreferenceSearcher, logger *logrus.Logger) *PreferenceHandler {
	return &PreferenceHandler{Svc: svc, Search: searcher, Logger: logger}
}

type scentsRequest struct {
	Scents string `json:"scents" binding:"max=4000"`
}

// synthesisRequest optionally replaces the scents before a recommendation
// or expansion runs.
type synthesisRequest struct {
	Scents *string `json:"scents" binding:"omitempty,max=4000"`
}

type suggestionRequest struct {
	Name         string  `json:"name" binding:"required,max=200"`
	Manufacturer string  `json:"manufacturer" binding:"max=200"`
	Price        float64 `json:"price" binding:"gte=0"`
	Similarity   float64 `json:"similarity" binding:"score"`
	Description  string  `json:"description" binding:"max=2000"`
}

func (r suggestionRequest) toEntity() entity.Suggestion {
	return entity.Suggestion{
		Name:         r.Name,
		Manufacturer: r.Manufacturer,
		Price:        r.Price,
		Similarity:   r.Similarity,
		Description:  r.Description,
	}
}

type viewQuery struct {
	MinSimilarity *float64 `form:"min_similarity" binding:"omitempty,score"`
	Sort          string   `form:"sort" binding:"omitempty,oneof=similarity price name manufacturer"`
	Order         string   `form:"order" binding:"omitempty,oneof=asc desc"`
	Locale        string   `form:"locale"`
}

type searchQuery struct {
	Q    string `form:"q" binding:"required,max=200"`
	Size int    `form:"size" binding:"omitempty,min=1,max=50"`
}

// suggestionView is a Suggestion plus its display tier and product link.
type suggestionView struct {
	entity.Suggestion
	Tier       entity.SimilarityTier `json:"tier"`
	ProductURL string                `json:"product_url"`
}

func toViews(items []entity.Suggestion) []suggestionView {
	out := make([]suggestionView, 0, len(items))
	for _, s := range items {
		out = append(out, suggestionView{Suggestion: s, Tier: s.Tier(), ProductURL: s.ProductURL()})
	}
	return out
}

// open loads the caller's session; on failure the response is already written.
func (h *PreferenceHandler) open(c *gin.Context) (*application.Session, bool) {
	sess, err := h.Svc.Open(c.Request.Context(), c.GetString(middleware.CtxUsername))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return sess, true
}

// fail maps service errors to HTTP statuses.
func (h *PreferenceHandler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, application.ErrUserNotFound):
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
	case errors.Is(err, application.ErrSynthesisInFlight):
		response.Error[any](c, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, llm.ErrCircuitOpen):
		response.Error[any](c, http.StatusServiceUnavailable, "recommendation model temporarily unavailable", nil)
	case errors.Is(err, application.ErrModelInvocation):
		response.Error[any](c, http.StatusBadGateway, "recommendation model request failed", nil)
	case errors.Is(err, application.ErrRecommendationParse), errors.Is(err, application.ErrScentExpansionParse):
		response.Error[any](c, http.StatusBadGateway, "recommendation model returned an unreadable response", err.Error())
	default:
		if h.Logger != nil {
			h.Logger.WithError(err).WithField("path", c.FullPath()).Error("preference request failed")
		}
		response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
	}
}

// Get GET /api/preferences
func (h *PreferenceHandler) Get(c *gin.Context) {
	sess, ok := h.open(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, sess.Prefs, "preferences", nil)
}

// SaveScents PUT /api/preferences/scents
func (h *PreferenceHandler) SaveScents(c *gin.Context) {
	var req scentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	sess, ok := h.open(c)
	if !ok {
		return
	}
	if err := h.Svc.SaveScents(c.Request.Context(), sess, req.Scents); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"scents": sess.Prefs.Scents}, "scents saved", nil)
}

func (h *PreferenceHandler) bindSynthesis(c *gin.Context) (*application.Session, bool) {
	var req synthesisRequest
	// An empty body, chunked or not, means "use the saved scents".
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return nil, false
	}
	sess, ok := h.open(c)
	if !ok {
		return nil, false
	}
	if req.Scents != nil {
		sess.Prefs.Scents = *req.Scents
	}
	return sess, true
}

// Recommend POST /api/recommendations
func (h *PreferenceHandler) Recommend(c *gin.Context) {
	sess, ok := h.bindSynthesis(c)
	if !ok {
		return
	}
	if scent.IsBlank(sess.Prefs.Scents) {
		response.Success(c, http.StatusOK, toViews(sess.Prefs.Suggestions), "no scents entered; suggestions unchanged", nil)
		return
	}
	items, err := h.Svc.Recommend(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toViews(items), "recommendations updated", map[string]any{"count": len(items)})
}

// Suggestions GET /api/recommendations
func (h *PreferenceHandler) Suggestions(c *gin.Context) {
	var q viewQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	opts, err := viewOptions(q, c.GetHeader("Accept-Language"))
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", err.Error())
		return
	}
	sess, ok := h.open(c)
	if !ok {
		return
	}
	items := view.Apply(sess.Prefs.Suggestions, opts)
	response.Success(c, http.StatusOK, toViews(items), "suggestions", map[string]any{
		"count":          len(items),
		"min_similarity": opts.MinSimilarity,
		"sort":           opts.SortKey,
		"order":          opts.Direction,
	})
}

func viewOptions(q viewQuery, acceptLanguage string) (view.Options, error) {
	opts := view.DefaultOptions()
	if q.MinSimilarity != nil {
		opts.MinSimilarity = *q.MinSimilarity
	}
	var err error
	if opts.SortKey, err = view.ParseSortKey(q.Sort); err != nil {
		return opts, err
	}
	if opts.Direction, err = view.ParseDirection(q.Order); err != nil {
		return opts, err
	}
	if q.Locale != "" {
		tag, err := language.Parse(q.Locale)
		if err != nil {
			return opts, err
		}
		opts.Locale = tag
	} else if tags, _, err := language.ParseAcceptLanguage(acceptLanguage); err == nil && len(tags) > 0 {
		opts.Locale = tags[0]
	}
	return opts, nil
}

// ExpandScents POST /api/scents/expand
func (h *PreferenceHandler) ExpandScents(c *gin.Context) {
	sess, ok := h.bindSynthesis(c)
	if !ok {
		return
	}
	if scent.IsBlank(sess.Prefs.Scents) {
		response.Success(c, http.StatusOK, gin.H{"scents": sess.Prefs.Scents}, "no scents entered; nothing to expand", nil)
		return
	}
	scents, err := h.Svc.ExpandScents(c.Request.Context(), sess)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"scents": scents}, "scents expanded", nil)
}

func (h *PreferenceHandler) bindSuggestion(c *gin.Context) (entity.Suggestion, *application.Session, bool) {
	var req suggestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return entity.Suggestion{}, nil, false
	}
	sess, ok := h.open(c)
	return req.toEntity(), sess, ok
}

// Like POST /api/suggestions/like
func (h *PreferenceHandler) Like(c *gin.Context) {
	item, sess, ok := h.bindSuggestion(c)
	if !ok {
		return
	}
	if err := h.Svc.Like(c.Request.Context(), sess, item); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"liked": sess.Prefs.Liked, "disliked": sess.Prefs.Disliked}, "liked", nil)
}

// Dislike POST /api/suggestions/dislike
func (h *PreferenceHandler) Dislike(c *gin.Context) {
	item, sess, ok := h.bindSuggestion(c)
	if !ok {
		return
	}
	if err := h.Svc.Dislike(c.Request.Context(), sess, item); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"liked": sess.Prefs.Liked, "disliked": sess.Prefs.Disliked}, "disliked", nil)
}

// ToggleFavorite POST /api/favorites/toggle
func (h *PreferenceHandler) ToggleFavorite(c *gin.Context) {
	item, sess, ok := h.bindSuggestion(c)
	if !ok {
		return
	}
	favorite, err := h.Svc.ToggleFavorite(c.Request.Context(), sess, item)
	if err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"favorite": favorite, "favorites": toViews(sess.Prefs.Favorites)}, "favorite toggled", nil)
}

// RemoveFavorite DELETE /api/favorites/:name
func (h *PreferenceHandler) RemoveFavorite(c *gin.Context) {
	sess, ok := h.open(c)
	if !ok {
		return
	}
	if err := h.Svc.RemoveFavorite(c.Request.Context(), sess, c.Param("name")); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, toViews(sess.Prefs.Favorites), "favorite removed", nil)
}

// Favorites GET /api/favorites
func (h *PreferenceHandler) Favorites(c *gin.Context) {
	sess, ok := h.open(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, toViews(sess.Prefs.Favorites), "favorites", map[string]any{"count": len(sess.Prefs.Favorites)})
}

// ClearSession DELETE /api/session
func (h *PreferenceHandler) ClearSession(c *gin.Context) {
	sess, ok := h.open(c)
	if !ok {
		return
	}
	if err := h.Svc.ClearSession(c.Request.Context(), sess); err != nil {
		h.fail(c, err)
		return
	}
	response.Success(c, http.StatusOK, sess.Prefs, "session cleared", nil)
}

// SearchPreferences GET /api/preferences/search?q=
func (h *PreferenceHandler) SearchPreferences(c *gin.Context) {
	if h.Search == nil {
		response.Error[any](c, http.StatusServiceUnavailable, "search unavailable", nil)
		return
	}
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	docs, err := h.Search.Search(c.Request.Context(), c.GetString(middleware.CtxUsername), q.Q, q.Size)
	if err != nil {
		if h.Logger != nil {
			h.Logger.WithError(err).Warn("preference search failed")
		}
		response.Error[any](c, http.StatusBadGateway, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, docs, "search results", map[string]any{"count": len(docs)})
}
