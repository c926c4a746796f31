// Package openrouter performs chat-completion calls against the OpenRouter API.
//
// A call has three outcomes, told apart by the returned error:
//
//   - nil: the upstream answered with a 2xx status and a JSON body.
//   - *UpstreamError: the upstream answered with a non-2xx status.
//   - *TransportError: no usable answer could be obtained (dial, DNS,
//     timeout, cancelled context, unreadable or non-JSON body).
package openrouter
