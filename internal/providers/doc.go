// Package providers implements the Backend interface for each supported AI
// provider.
//
// The provider set is closed: OpenAI, Anthropic, and an OpenAI-compatible
// local server (Ollama or LM Studio). Unknown tags fail with
// [UnsupportedProviderError]; upstream failures surface as [BackendError]
// carrying the HTTP status and message.
//
// All providers share a common retry helper with exponential back-off on
// 429 and 5xx responses. HTTP clients are injected via a transport field so
// that tests can redirect calls to local httptest servers without making
// live API requests.
//
// [Dispatcher] wraps any Backend with a token-bucket rate limiter and a
// circuit breaker.
//
// Use [New] to obtain a Backend by provider tag and [Settings].
package providers
