package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/rattanstore-backend/api/responses"
	"github.com/angelmondragon/rattanstore-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/rattanstore-backend/pkg/errors"
	"github.com/angelmondragon/rattanstore-backend/pkg/logger"
)

type productListResponse struct {
	Products []catalog.Product `json:"products"`
}

// ProductList returns the catalog, optionally narrowed by ?category=.
func ProductList(provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			serviceUnavailable(w, r, logg, "catalog")
			return
		}

		products, err := provider.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
			filtered := make([]catalog.Product, 0, len(products))
			for _, p := range products {
				if strings.EqualFold(string(p.Category), category) {
					filtered = append(filtered, p)
				}
			}
			products = filtered
		}
		if products == nil {
			products = []catalog.Product{}
		}

		responses.WriteSuccess(w, productListResponse{Products: products})
	}
}

func ProductDetail(provider catalog.Provider, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if provider == nil {
			serviceUnavailable(w, r, logg, "catalog")
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "productId"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "productId is required"))
			return
		}

		product, err := provider.Product(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}
