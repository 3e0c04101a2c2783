// Package wrapped scans text for delimited placeholders and substitutes them.
//
// Five wrapper styles are recognized by default, in this priority order:
//
//	{{name}}   double_curly
//	{%name%}   curly_percent
//	{#name#}   curly_hash
//	${name}    dollar_curly
//	{name}     curly
//
// # Scanning
//
// Scan splits a string into literal text and placeholder elements in one
// left-to-right pass. Concatenating the elements in their original form
// reproduces the input exactly:
//
//	elements := wrapped.Scan("Hi {{user}}, see ${HOME}")
//	// Text("Hi "), Wrapped(double_curly "user"), Text(", see "), Wrapped(dollar_curly "HOME")
//	wrapped.Reconstruct(elements) // "Hi {{user}}, see ${HOME}"
//
// When several prefixes start at the same position, the first catalog entry
// whose suffix appears later in the input wins, so "{%} and {name}" yields
// Wrapped(curly "%"), Text(" and "), Wrapped(curly "name").
//
// A wrapper whose suffix never appears is kept as literal text by default,
// as a Text element of its own after any text that preceded it.
// With WithStrict() the scan fails instead:
//
//	scanner := wrapped.MustNewScanner(wrapped.WithStrict())
//	_, err := scanner.Scan("Hello ${")
//	wrapped.IsUnterminatedWrapper(err) // true
//
// # Substitution
//
// Resolvers map placeholders to values. They are tried in order and the
// first one that answers wins; placeholders nobody resolves are written
// back unchanged:
//
//	out := wrapped.Substitute("{{greeting}}, {name}! by {hidden}",
//	    wrapped.MapResolver(map[string]string{"greeting": "Hello", "name": "world"}),
//	)
//	// out: "Hello, world! by {hidden}"
//
// Built-in resolvers cover flat maps (MapResolver), nested data with dot
// paths (ValuesResolver), environment variables (EnvResolver) and per-kind
// routing (KindResolver).
//
// # Custom Wrappers
//
// A Catalog is an ordered list of delimiters and may contain kinds of your own:
//
//	catalog := append(wrapped.Catalog{{Kind: "angle", Prefix: "<<", Suffix: ">>"}}, wrapped.DefaultCatalog()...)
//	scanner := wrapped.MustNewScanner(wrapped.WithCatalog(catalog))
//
// # Stored Templates
//
// An Engine adds versioned template storage on top of the scanner. Storage
// backends register as drivers ("memory", "sqlite", "postgres") and can be
// wrapped in a CachedStorage:
//
//	storage, _ := wrapped.OpenStorage("sqlite", "templates.db")
//	engine := wrapped.MustNew(wrapped.WithStorage(storage), wrapped.WithStrict())
//	defer engine.Close()
//
//	_ = engine.SaveTemplate(ctx, &wrapped.StoredTemplate{Name: "welcome", Source: "Hi {{user}}"})
//	out, _ := engine.RenderTemplate(ctx, "welcome", wrapped.MapResolver(map[string]string{"user": "Ada"}))
//
// # Observability
//
// WithLogger accepts a *zap.Logger (no-op by default) and WithMetrics a
// MetricsRecorder; NewMetricsRecorder reports through the global
// OpenTelemetry meter provider.
package wrapped
