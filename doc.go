// Package viewcache is a dashboard-facing data layer that keeps UI lists
// fresh without redundant network traffic while tolerating concurrent user
// actions (toggles, searches, "load more").
//
// Components:
//   - Cache[V]: key -> value TTL cache with in-flight request coalescing.
//     Fresh entries are served without a network call; concurrent misses for
//     the same key share exactly one fetch.
//   - Snapshot[V]: best-effort durable echo of successful fetches, used only
//     to paint an initial, possibly-stale state before the first real fetch
//     resolves. Backed by a pluggable Provider (memory, Ristretto, BigCache,
//     Redis) and Codec[V].
//   - Paginator[T]: keyset-paginated loader over a (createdAt DESC, id DESC)
//     ordered collection. Owns the append-only loaded sequence; "load more"
//     is reentrancy-guarded.
//   - Mutator[T]: optimistic field mutation with server reconciliation.
//     Applies the desired value locally first, rolls back on rejection, and
//     discards superseded responses via per-(id,field) sequence numbers.
//   - View[T]: composes Paginator and Mutator with client-side status and
//     debounced free-text filtering over already-loaded items.
//   - Sidebar[V]: Cache + Snapshot composition for small config payloads
//     keyed by query parameters.
//
// All services are explicitly constructed and disposed; nothing is a package
// global, so multiple sessions (or parallel tests) never share hidden state.
//
// Typical list wiring:
//
//	client, _ := httpjson.New(httpjson.Config{BaseURL: api})
//	view, _ := viewcache.NewView[Link](viewcache.ViewOptions[Link]{
//	    WorkspaceID: "ws-1",
//	    PageSize:    50,
//	    Source:      httpjson.NewSource[Link](client, "/links"),
//	    Applier:     client,
//	    Fields:      linkFields,
//	    SearchText:  func(l Link) string { return l.Slug + " " + l.URL },
//	    IsActive:    func(l Link) bool { return l.Active },
//	})
//	defer view.Close()
package viewcache
