// Package observability provides the Prometheus collector, OpenTelemetry
// tracer setup and span helpers shared by the services and the HTTP surface.
//
// Every Post Synchronization Service operation and every category feed
// refresh runs inside a span:
//
//	ctx, span := observability.Tracer("posts").Start(ctx, "posts.CreatePost",
//		trace.WithAttributes(observability.PostAttributes(post)...))
//	defer func() { observability.EndSpan(span, err) }()
package observability
