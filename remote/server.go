// Package remote implements the thin opaque remote-object surface
// SPEC_FULL.md adds over spec.md §6's "remote repositories are an opaque
// object store, reachable by has_object/read_object/open_payload":
// a read-only HTTP router fronting a graph.Store, and a Client consuming
// it that satisfies syncrepair.Source. Grounded on the route-table shape
// of routes.go and registry/api/v2/routes.go and the named-route
// dispatch idiom of registry/handlers/app.go, trimmed to three
// operations since there is no push/auth surface to expose (spec.md's
// Non-goals exclude the full remote-repository network protocol).
package remote

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/forgepkg/forge/digest"
	"github.com/forgepkg/forge/forge"
	"github.com/forgepkg/forge/forgeerr"
	"github.com/forgepkg/forge/graph"
	"github.com/forgepkg/forge/graph/cache"
	"github.com/forgepkg/forge/internal/dcontext"
	"github.com/forgepkg/forge/metrics"
)

const (
	routeNameTag     = "tag"
	routeNameObject  = "object"
	routeNamePayload = "payload"
)

// NewRouter builds a gorilla router serving store read-only: resolving
// tag/digest references and fetching objects and payloads by digest.
func NewRouter(store *graph.Store) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(logRequest)

	router.
		Path("/tags/{name:.+}").
		Methods(http.MethodGet).
		Name(routeNameTag).
		Handler(resolveTagHandler(store))

	router.
		Path("/objects/{digest}").
		Methods(http.MethodGet, http.MethodHead).
		Name(routeNameObject).
		Handler(objectHandler(store))

	router.
		Path("/payloads/{digest}").
		Methods(http.MethodGet, http.MethodHead).
		Name(routeNamePayload).
		Handler(payloadHandler(store))

	return router
}

// logRequest attaches the caller's address to the request context and
// logs the route it matched, so syncrepair walks against a remote source
// leave a trace of which peer drove them.
func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := dcontext.WithRemoteHost(r.Context(), r.RemoteAddr)
		route := mux.CurrentRoute(r)
		name := ""
		if route != nil {
			name = route.GetName()
		}
		dcontext.GetLogger(ctx).Debugf("remote: %s %s from %s", name, r.URL.Path, dcontext.GetRemoteHost(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func resolveTagHandler(store *graph.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer metrics.ObserveDuration(time.Now(), metrics.RemoteRequestDuration, routeNameTag)
		metrics.RemoteRequests.WithValues(routeNameTag).Inc(1)
		name := mux.Vars(r)["name"]
		d, err := store.ResolveTagOrDigest(name)
		if err != nil {
			writeError(w, err)
			return
		}
		fmt.Fprint(w, d.String())
	}
}

func objectHandler(store *graph.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer metrics.ObserveDuration(time.Now(), metrics.RemoteRequestDuration, routeNameObject)
		metrics.RemoteRequests.WithValues(routeNameObject).Inc(1)
		d := digest.Digest(mux.Vars(r)["digest"])
		obj, err := store.ReadObject(d, cache.CacheOk)
		if err != nil {
			writeError(w, err)
			return
		}
		body := forge.Marshal(obj)
		w.Header().Set("Content-Type", "application/vnd.forge.object")
		if r.Method == http.MethodHead {
			w.Header().Set("Content-Length", fmt.Sprint(len(body)))
			return
		}
		w.Write(body)
	}
}

func payloadHandler(store *graph.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer metrics.ObserveDuration(time.Now(), metrics.RemoteRequestDuration, routeNamePayload)
		metrics.RemoteRequests.WithValues(routeNamePayload).Inc(1)
		d := digest.Digest(mux.Vars(r)["digest"])
		ok, err := store.HasPayload(d)
		if err != nil {
			writeError(w, err)
			return
		}
		if !ok {
			writeError(w, forgeerr.UnknownObjectError(d.String()))
			return
		}
		if r.Method == http.MethodHead {
			return
		}
		rc, err := store.OpenPayload(d)
		if err != nil {
			writeError(w, err)
			return
		}
		defer rc.Close()
		w.Header().Set("Content-Type", "application/octet-stream")
		io.Copy(w, rc)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case forgeerr.Is(err, forgeerr.UnknownObject), forgeerr.Is(err, forgeerr.UnknownReference):
		status = http.StatusNotFound
	}
	http.Error(w, err.Error(), status)
}
