package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/charitypix/charitypix/internal/httputil"
	"github.com/charitypix/charitypix/services/gallery"
)

// maxUploadBytes bounds multipart uploads. Kubo handles the content; this
// only keeps a single request from exhausting memory.
const maxUploadBytes = 32 << 20

type connectRequest struct {
	Address string `json:"address"`
}

type statusResponse struct {
	Status        string `json:"status"`
	UploadState   string `json:"upload_state"`
	PurchaseState string `json:"purchase_state"`
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req connectRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	session, err := s.gallery.Connect(r.Context(), req.Address)
	if err != nil {
		// A connect with an unreachable contract still binds the wallet;
		// report the session together with the degraded-mode error.
		if errors.Is(err, gallery.ErrConfigUnavailable) {
			httputil.WriteJSON(w, http.StatusBadGateway, map[string]interface{}{
				"error":   err.Error(),
				"session": session,
			})
			return
		}
		s.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, session)
}

func (s *Server) handleContractConfig(w http.ResponseWriter, r *http.Request) {
	cfg, ok := s.gallery.Config()
	if !ok {
		httputil.NotFound(w, "no contract configuration cached; connect a wallet first")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"commission_rate": cfg.CommissionRate,
		"recipient":       cfg.Recipient,
		"minimum_price":   gallery.FormatAmount(cfg.MinimumPriceWei),
	})
}

func (s *Server) handleListListings(w http.ResponseWriter, r *http.Request) {
	listings, err := s.gallery.Listings(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	if listings == nil {
		listings = []gallery.ListingView{}
	}
	httputil.WriteJSON(w, http.StatusOK, listings)
}

func (s *Server) handleCreateListing(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httputil.BadRequest(w, "invalid multipart form: "+err.Error())
		return
	}

	title := r.FormValue("title")
	price := r.FormValue("price")

	file, _, err := r.FormFile("file")
	if err != nil {
		httputil.BadRequest(w, "missing file field")
		return
	}
	defer file.Close()

	listing, err := s.gallery.Upload(r.Context(), title, price, file)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordWorkflowFailure("upload", failureReason(err))
		}
		s.writeServiceError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.UploadsTotal.Inc()
	}
	httputil.WriteJSON(w, http.StatusCreated, listing)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		httputil.BadRequest(w, "invalid listing id")
		return
	}

	result, err := s.gallery.Purchase(r.Context(), id)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordWorkflowFailure("purchase", failureReason(err))
		}
		s.writeServiceError(w, err)
		return
	}

	if s.metrics != nil {
		s.metrics.PurchasesTotal.Inc()
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	upload, purchase := s.gallery.States()
	httputil.WriteJSON(w, http.StatusOK, statusResponse{
		Status:        s.gallery.Status(),
		UploadState:   string(upload),
		PurchaseState: string(purchase),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// writeServiceError maps gallery sentinel errors onto HTTP status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gallery.ErrValidation):
		httputil.BadRequest(w, err.Error())
	case errors.Is(err, gallery.ErrBusy):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, gallery.ErrPurchaseRejected):
		httputil.Conflict(w, err.Error())
	case errors.Is(err, gallery.ErrConfigUnavailable),
		errors.Is(err, gallery.ErrStorageUnavailable),
		errors.Is(err, gallery.ErrNetwork):
		httputil.BadGateway(w, err.Error())
	default:
		s.log.WithField("error", err.Error()).Error("unclassified service error")
		httputil.InternalError(w, "internal error")
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, gallery.ErrValidation):
		return "validation"
	case errors.Is(err, gallery.ErrBusy):
		return "busy"
	case errors.Is(err, gallery.ErrPurchaseRejected):
		return "rejected"
	case errors.Is(err, gallery.ErrConfigUnavailable):
		return "config_unavailable"
	case errors.Is(err, gallery.ErrStorageUnavailable):
		return "storage_unavailable"
	case errors.Is(err, gallery.ErrNetwork):
		return "network"
	default:
		return "internal"
	}
}
