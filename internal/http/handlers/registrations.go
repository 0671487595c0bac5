package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/samzcoder/hotel-control/internal/domain/registration"
)

type RegistrationStore interface {
	EnsureSchema(ctx context.Context) error
	List(ctx context.Context, filter registration.ListFilter) ([]registration.Registration, error)
	Create(ctx context.Context, req registration.CreateRegistrationRequest) (registration.Registration, error)
	Update(ctx context.Context, req registration.UpdateRegistrationRequest) error
	Delete(ctx context.Context, id int64) error
}

type RegistrationHandlerOptions struct {
	Logger *slog.Logger
	// Strict surfaces duplicates as 409 and unknown ids as 404.
	Strict  bool
	Timeout time.Duration
}

type RegistrationHandler struct {
	store   RegistrationStore
	log     *slog.Logger
	strict  bool
	timeout time.Duration
}

const maxCustomerIDFilterLen = 255

func NewRegistrationHandler(store RegistrationStore, opts RegistrationHandlerOptions) *RegistrationHandler {
	RegisterValidators()

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}

	return &RegistrationHandler{
		store:   store,
		log:     opts.Logger,
		strict:  opts.Strict,
		timeout: opts.Timeout,
	}
}

func (h *RegistrationHandler) withTimeout(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), h.timeout)
}

func (h *RegistrationHandler) List(ctx *gin.Context) {
	var filter registration.ListFilter

	if q, ok := ctx.GetQuery("customerId"); ok {
		q = strings.TrimSpace(q)

		if len(q) > maxCustomerIDFilterLen {
			RespondBadRequest(ctx, "customerId filter is too long", gin.H{"max": maxCustomerIDFilterLen})
			return
		}
		if q != "" {
			filter.CustomerID = &q
		}
	}

	cctx, cancel := h.withTimeout(ctx)
	defer cancel()

	err := h.store.EnsureSchema(cctx)
	if err != nil {
		h.log.ErrorContext(cctx, "registrations_list_failed", "stage", "ensure_schema", "err", err)
		RespondInternal(ctx, "Could not fetch registrations")
		return
	}

	regs, err := h.store.List(cctx, filter)
	if err != nil {
		h.log.ErrorContext(cctx, "registrations_list_failed", "err", err)
		RespondInternal(ctx, "Could not fetch registrations")
		return
	}

	ctx.JSON(http.StatusOK, regs)
}

func (h *RegistrationHandler) Create(ctx *gin.Context) {
	var req registration.CreateRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req = req.Normalize()

	cctx, cancel := h.withTimeout(ctx)
	defer cancel()

	err := h.store.EnsureSchema(cctx)
	if err != nil {
		h.log.ErrorContext(cctx, "registration_create_failed", "stage", "ensure_schema", "err", err)
		RespondInternal(ctx, "Could not add registration")
		return
	}

	reg, err := h.store.Create(cctx, req)

	if err != nil {
		h.log.ErrorContext(cctx, "registration_create_failed", "customer_id", req.CustomerID, "err", err)

		if h.strict && errors.Is(err, registration.ErrDuplicateCustomerID) {
			RespondConflict(ctx, "duplicate_customer_id", "a registration with this customer id already exists")
			return
		}

		RespondInternal(ctx, "Could not add registration")
		return
	}

	RespondMessage(ctx, http.StatusCreated, "Registration created successfully", gin.H{"registration": reg})
}

func (h *RegistrationHandler) Update(ctx *gin.Context) {
	var req registration.UpdateRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req = req.Normalize()

	cctx, cancel := h.withTimeout(ctx)
	defer cancel()

	err := h.store.Update(cctx, req)

	if err != nil {
		switch {
		case errors.Is(err, registration.ErrNotFound):
			if h.strict {
				RespondNotFound(ctx, "Registration not found")
				return
			}
			// zero rows updated is reported like a success
			h.log.DebugContext(cctx, "registration_update_no_rows", "id", req.ID)

		case h.strict && errors.Is(err, registration.ErrDuplicateCustomerID):
			h.log.ErrorContext(cctx, "registration_update_failed", "id", req.ID, "err", err)
			RespondConflict(ctx, "duplicate_customer_id", "a registration with this customer id already exists")
			return

		default:
			h.log.ErrorContext(cctx, "registration_update_failed", "id", req.ID, "err", err)
			RespondInternal(ctx, "Could not update registration")
			return
		}
	}

	RespondMessage(ctx, http.StatusOK, "Registration updated successfully", nil)
}

func (h *RegistrationHandler) Delete(ctx *gin.Context) {
	var req registration.DeleteRegistrationRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := h.withTimeout(ctx)
	defer cancel()

	err := h.store.Delete(cctx, req.ID)

	if err != nil {
		if !errors.Is(err, registration.ErrNotFound) {
			h.log.ErrorContext(cctx, "registration_delete_failed", "id", req.ID, "err", err)
			RespondInternal(ctx, "Could not delete registration")
			return
		}

		if h.strict {
			RespondNotFound(ctx, "Registration not found")
			return
		}
		h.log.DebugContext(cctx, "registration_delete_no_rows", "id", req.ID)
	}

	RespondMessage(ctx, http.StatusOK, "Registration deleted successfully", nil)
}
