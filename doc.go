/*
	Package wirecall implements a JSON-RPC 2.0 client.

	Client shapes method calls into request envelopes. Arguments are
	positional by default, while a sole mapping argument (see Named) is
	sent as object params. Calls without arguments omit the params
	member entirely. Request ids come from a monotonic counter, so
	concurrent calls on a shared Client stay distinguishable.

	Transport is the delivery boundary. HTTPTransport posts envelopes to
	an HTTP endpoint; the ws and ws/gorilla subpackages carry them over
	websocket connections. Dial covers the common HTTP case.

	Method is a cursor for spelling dotted method names, as in
	client.Method("store", "inventory").Call(ctx, &result). Names the
	cursor refuses, such as reserved or underscore-prefixed segments,
	remain callable through Client.Call if a server really serves them.

	Batch accumulates calls and notifications into a single round trip.
*/
package wirecall
