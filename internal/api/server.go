package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fastprodman/casino-wallet/internal/services/wallet"
)

// NewServer creates and returns a configured *http.Server for the
// wallet callback API.
func NewServer(port uint16, svc *wallet.Service, providerKey string) *http.Server {
	mux := NewRouter(svc, providerKey)

	addr := fmt.Sprintf(":%d", port)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
