/**
 * @description
 * HTTP handlers for the registry API. Handlers parse requests, call the application
 * services with the caller's session and write JSON responses or the error envelope.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: URL parameters.
 * - internal/app, internal/auth, internal/realtime: Services behind the handlers.
 */

package api

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/LuisRivera1699/wedding-presents/internal/app"
	"github.com/LuisRivera1699/wedding-presents/internal/auth"
	"github.com/LuisRivera1699/wedding-presents/internal/domain"
	"github.com/LuisRivera1699/wedding-presents/internal/funding"
	"github.com/LuisRivera1699/wedding-presents/internal/logging"
	"github.com/LuisRivera1699/wedding-presents/internal/realtime"
)

// multipartOverhead is allowed on top of the file size limit for form fields and boundaries.
const multipartOverhead = 1 << 20

// Options wires the handlers to the application services.
type Options struct {
	Catalog             *app.CatalogService
	Intake              *app.IntakeService
	Moderation          *app.ModerationService
	Authenticator       *auth.Authenticator
	Gate                auth.Gate
	Channel             *realtime.Channel
	Formatter           *funding.Formatter
	PlaceholderImageURL string
	PublicBaseURL       string
	MaxUploadBytes      int64
	Logger              logging.Logger
}

// Handlers holds the application services that handlers will use.
type Handlers struct {
	catalog        *app.CatalogService
	intake         *app.IntakeService
	moderation     *app.ModerationService
	authenticator  *auth.Authenticator
	gate           auth.Gate
	channel        *realtime.Channel
	present        presenter
	publicBaseURL  string
	maxUploadBytes int64
	logger         logging.Logger
}

// NewHandlers creates a new instance of Handlers.
func NewHandlers(opts Options) *Handlers {
	formatter := opts.Formatter
	if formatter == nil {
		formatter = funding.NewFormatter("es-PE", "PEN")
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 10 << 20
	}
	return &Handlers{
		catalog:        opts.Catalog,
		intake:         opts.Intake,
		moderation:     opts.Moderation,
		authenticator:  opts.Authenticator,
		gate:           opts.Gate,
		channel:        opts.Channel,
		present:        presenter{formatter: formatter, placeholder: opts.PlaceholderImageURL},
		publicBaseURL:  opts.PublicBaseURL,
		maxUploadBytes: maxUpload,
		logger:         logging.Component(opts.Logger, "api"),
	}
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":          "healthy",
		"public_base_url": h.publicBaseURL,
	})
}

func (h *Handlers) handleListGifts(w http.ResponseWriter, r *http.Request) {
	gifts, err := h.catalog.ListGifts(r.Context())
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.present.gifts(gifts))
}

func (h *Handlers) handleGetGift(w http.ResponseWriter, r *http.Request) {
	gift, err := h.catalog.GetGift(r.Context(), chi.URLParam(r, "giftID"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.present.gift(*gift))
}

func (h *Handlers) handlePaymentMethods(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string][]string{"payment_methods": h.intake.PaymentMethods()})
}

func (h *Handlers) handleCreateContribution(w http.ResponseWriter, r *http.Request) {
	if err := h.parseMultipart(w, r); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	proofFile, err := formUpload(r, "proof")
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	if proofFile != nil {
		defer proofFile.Content.(multipart.File).Close()
	}

	contribution, err := h.intake.Submit(r.Context(), app.IntakeRequest{
		GiftID:        chi.URLParam(r, "giftID"),
		Name:          r.FormValue("name"),
		Amount:        r.FormValue("amount"),
		PaymentMethod: r.FormValue("paymentMethod"),
		Proof:         proofFile,
		ClientKey:     clientKey(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, h.present.contribution(*contribution))
}

func (h *Handlers) handleListContributions(w http.ResponseWriter, r *http.Request) {
	query := domain.ContributionQuery{GiftID: strings.TrimSpace(r.URL.Query().Get("giftId"))}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := domain.ParseContributionStatus(raw)
		if !ok {
			writeError(w, r, h.logger, domain.ValidationErr("invalid filter", map[string]string{"status": "unknown status"}))
			return
		}
		query.Status = status
	}

	contributions, err := h.moderation.List(r.Context(), sessionFrom(r), query)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.present.contributions(contributions))
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h *Handlers) handleSetContributionStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, h.logger, domain.ValidationErr("invalid request body", nil))
		return
	}
	status, ok := domain.ParseContributionStatus(req.Status)
	if !ok {
		writeError(w, r, h.logger, domain.ValidationErr("invalid status", map[string]string{"status": "status must be approved or rejected"}))
		return
	}

	contribution, err := h.moderation.SetStatus(r.Context(), sessionFrom(r), chi.URLParam(r, "contributionID"), status)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.present.contribution(*contribution))
}

func (h *Handlers) handleDeleteContribution(w http.ResponseWriter, r *http.Request) {
	if err := h.moderation.Delete(r.Context(), sessionFrom(r), chi.URLParam(r, "contributionID")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// giftRequest is the JSON form of a gift create or update.
type giftRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	TotalCost   *decimal.Decimal `json:"total_cost"`
}

func (h *Handlers) handleCreateGift(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := h.giftInput(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer cleanup()

	gift, err := h.catalog.CreateGift(r.Context(), sessionFrom(r), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, h.present.catalogGift(*gift))
}

func (h *Handlers) handleUpdateGift(w http.ResponseWriter, r *http.Request) {
	in, cleanup, err := h.giftInput(w, r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	defer cleanup()

	gift, err := h.catalog.UpdateGift(r.Context(), sessionFrom(r), chi.URLParam(r, "giftID"), in)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.present.catalogGift(*gift))
}

func (h *Handlers) handleDeleteGift(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.DeleteGift(r.Context(), sessionFrom(r), chi.URLParam(r, "giftID")); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// giftInput reads a gift from a multipart form, which may carry an image, or from JSON.
func (h *Handlers) giftInput(w http.ResponseWriter, r *http.Request) (app.GiftInput, func(), error) {
	noop := func() {}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		var req giftRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return app.GiftInput{}, noop, domain.ValidationErr("invalid request body", nil)
		}
		in := app.GiftInput{Name: req.Name, Description: req.Description}
		if req.TotalCost != nil {
			cost := req.TotalCost.String()
			in.TotalCost = &cost
		}
		return in, noop, nil
	}

	if err := h.parseMultipart(w, r); err != nil {
		return app.GiftInput{}, noop, err
	}
	image, err := formUpload(r, "image")
	if err != nil {
		r.MultipartForm.RemoveAll()
		return app.GiftInput{}, noop, err
	}
	cleanup := func() {
		if image != nil {
			image.Content.(multipart.File).Close()
		}
		r.MultipartForm.RemoveAll()
	}

	in := app.GiftInput{
		Name:        formField(r, "name"),
		Description: formField(r, "description"),
		TotalCost:   formField(r, "totalCost"),
		Image:       image,
	}
	return in, cleanup, nil
}

func (h *Handlers) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes + multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.ValidationErr("request too large", map[string]string{"file": "the file is too large"})
		}
		return domain.ValidationErr("invalid form", nil)
	}
	return nil
}

// formUpload returns the named file, or nil when the form has none.
func formUpload(r *http.Request, field string) (*app.Upload, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.ValidationErr("invalid form", map[string]string{field: "the file could not be read"})
	}
	return &app.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}, nil
}

// formField distinguishes an absent field (nil) from an empty one.
func formField(r *http.Request, field string) *string {
	values, ok := r.MultipartForm.Value[field]
	if !ok || len(values) == 0 {
		return nil
	}
	value := values[0]
	return &value
}

// clientKey identifies the submitter; RealIP has already rewritten RemoteAddr.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
