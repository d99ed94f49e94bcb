// Package llm provides the extraction service client that turns free clinical
// text into a candidate record. It supports OpenAI and Anthropic, with retry
// logic, rate limiting, and response caching.
package llm
