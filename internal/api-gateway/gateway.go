package gateway

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
)

func rp(to string) (*httputil.ReverseProxy, error) {
	u, err := url.Parse(to)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid upstream %q", to)
	}
	return httputil.NewSingleHostReverseProxy(u), nil
}

// Router expõe o engine em /api/engine e só o saldo do ledger em /api/credits.
// Mint e transferências diretas do ledger ficam restritos à rede interna.
func Router(engineURL, ledgerURL string) (http.Handler, error) {
	engine, err := rp(engineURL)
	if err != nil {
		return nil, err
	}
	ledger, err := rp(ledgerURL)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// engine (ex.: /api/engine/v1/predictions/1 -> engine-service /v1/predictions/1)
	mux.Handle("/api/engine/", http.StripPrefix("/api/engine", engine))

	// feed ao vivo
	mux.Handle("/ws", engine)

	// ledger: somente leitura de saldo
	mux.Handle("GET /api/credits/balance", http.StripPrefix("/api", ledger))

	return withCORS(mux), nil
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Participant-ID")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}
