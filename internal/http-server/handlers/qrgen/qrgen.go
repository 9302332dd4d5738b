package qrgen

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"rbreg/entity"
	"rbreg/internal/qr"
	"rbreg/lib/api/cont"
	"rbreg/lib/api/response"
	"rbreg/lib/sl"
)

type Core interface {
	EventQr(ctx context.Context, uid, callerUid, qrType, size string) ([]byte, *entity.Status, error)
}

// Image serves a PNG QR code for an event the caller owns. Query
// parameters pick the target page and the render size:
//
//	?type=register|ci  (default register)
//	?size=small|large  (default small)
func Image(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("http.handlers.qrgen"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("event", chi.URLParam(r, "id")),
		)
		user := cont.GetUser(r.Context())

		qrType := r.URL.Query().Get("type")
		if qrType == "" {
			qrType = qr.TypeRegister
		}
		size := r.URL.Query().Get("size")
		if size == "" {
			size = qr.SizeSmall
		}

		png, status, err := handler.EventQr(r.Context(), chi.URLParam(r, "id"), user.Uid, qrType, size)
		if err != nil {
			logger.Error("generate qr", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("QR generation failed"))
			return
		}
		if status != nil {
			render.Status(r, status.HTTPStatus())
			render.JSON(w, r, response.Failed(status.Code, status.Message))
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		if _, err = w.Write(png); err != nil {
			logger.Error("write qr image", sl.Err(err))
		}
	}
}
