package openrouter_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/chatproxy/pkg/llm"
	"github.com/papercomputeco/chatproxy/pkg/openrouter"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

var _ = Describe("Client", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		status   int
		respBody string
		received *http.Request
		gotBody  []byte
	)

	request := &llm.CompletionRequest{
		Model: "openai/gpt-3.5-turbo",
		Messages: []llm.Message{
			llm.NewTurn("user", "Hello").Message(),
		},
	}

	BeforeEach(func() {
		ctx = context.Background()
		status = http.StatusOK
		respBody = `{"choices":[{"message":{"content":"Hello!"}}]}`
		received = nil
		gotBody = nil

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			received = r
			gotBody, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, respBody)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newClient := func() *openrouter.Client {
		return openrouter.New(openrouter.Options{URL: server.URL, APIKey: "sk-test"})
	}

	Describe("New", func() {
		It("defaults to the OpenRouter endpoint", func() {
			var target string
			httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				target = r.URL.String()
				return &http.Response{
					StatusCode: http.StatusOK,
					Header:     http.Header{"Content-Type": []string{"application/json"}},
					Body:       io.NopCloser(strings.NewReader(respBody)),
					Request:    r,
				}, nil
			})}

			c := openrouter.New(openrouter.Options{APIKey: "sk-test", HTTPClient: httpClient})
			_, err := c.Complete(ctx, request)
			Expect(err).NotTo(HaveOccurred())
			Expect(target).To(Equal(openrouter.DefaultURL))
		})
	})

	Describe("Complete", func() {
		It("posts the model and messages with bearer auth", func() {
			_, err := newClient().Complete(ctx, request)
			Expect(err).NotTo(HaveOccurred())

			Expect(received.Method).To(Equal(http.MethodPost))
			Expect(received.Header.Get("Authorization")).To(Equal("Bearer sk-test"))
			Expect(received.Header.Get("Content-Type")).To(Equal("application/json"))

			var sent map[string]any
			Expect(json.Unmarshal(gotBody, &sent)).To(Succeed())
			Expect(sent["model"]).To(Equal("openai/gpt-3.5-turbo"))
			Expect(sent["messages"]).To(Equal([]any{
				map[string]any{"role": "user", "content": "Hello"},
			}))
		})

		It("returns the generated text", func() {
			completion, err := newClient().Complete(ctx, request)
			Expect(err).NotTo(HaveOccurred())
			Expect(completion.Text()).To(Equal("Hello!"))
		})

		DescribeTable("falls back when the reply has no usable content",
			func(body string) {
				respBody = body
				completion, err := newClient().Complete(ctx, request)
				Expect(err).NotTo(HaveOccurred())
				Expect(completion.Text()).To(Equal(llm.FallbackText))
			},
			Entry("no choices", `{"id":"gen-1"}`),
			Entry("empty choices", `{"choices":[]}`),
			Entry("empty content", `{"choices":[{"message":{"content":""}}]}`),
			Entry("null content", `{"choices":[{"message":{"content":null}}]}`),
			Entry("missing message", `{"choices":[{}]}`),
			Entry("choices of the wrong type", `{"choices":"nope"}`),
			Entry("top-level array", `[]`),
			Entry("top-level null", `null`),
			Entry("mixed-case keys", `{"Choices":[{"MESSAGE":{"Content":"from wrong keys"}}]}`),
			Entry("mixed-case content key", `{"choices":[{"message":{"Content":"from wrong keys"}}]}`),
			Entry("duplicate content keys ending empty", `{"choices":[{"message":{"content":"first","content":""}}]}`),
		)

		It("uses the last of duplicate content keys", func() {
			respBody = `{"choices":[{"message":{"content":"","content":"last"}}]}`
			completion, err := newClient().Complete(ctx, request)
			Expect(err).NotTo(HaveOccurred())
			Expect(completion.Text()).To(Equal("last"))
		})

		It("returns an UpstreamError carrying the upstream message", func() {
			status = http.StatusTooManyRequests
			respBody = `{"error":{"message":"rate limited","code":429}}`

			_, err := newClient().Complete(ctx, request)

			var upErr *openrouter.UpstreamError
			Expect(errors.As(err, &upErr)).To(BeTrue())
			Expect(upErr.StatusCode).To(Equal(http.StatusTooManyRequests))
			Expect(upErr.Message).To(Equal("rate limited"))
		})

		DescribeTable("leaves the UpstreamError message empty when none is usable",
			func(body string) {
				status = http.StatusBadGateway
				respBody = body

				_, err := newClient().Complete(ctx, request)

				var upErr *openrouter.UpstreamError
				Expect(errors.As(err, &upErr)).To(BeTrue())
				Expect(upErr.Message).To(BeEmpty())
			},
			Entry("no error object", `{}`),
			Entry("error is a string", `{"error":"boom"}`),
			Entry("message is a number", `{"error":{"message":5}}`),
			Entry("body is not JSON", `<html>bad gateway</html>`),
			Entry("mixed-case keys", `{"Error":{"Message":"wrong keys"}}`),
			Entry("mixed-case message key", `{"error":{"MESSAGE":"wrong keys"}}`),
		)

		It("returns a TransportError for a non-JSON success body", func() {
			respBody = "not json"

			_, err := newClient().Complete(ctx, request)

			var tErr *openrouter.TransportError
			Expect(errors.As(err, &tErr)).To(BeTrue())
			Expect(tErr.Op).To(Equal("decode"))
		})

		It("returns a TransportError when the upstream is unreachable", func() {
			c := newClient()
			server.Close()

			_, err := c.Complete(ctx, request)

			var tErr *openrouter.TransportError
			Expect(errors.As(err, &tErr)).To(BeTrue())
			Expect(tErr.Op).To(Equal("send"))
		})

		It("returns a TransportError when the call times out", func() {
			slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
			}))
			defer slow.Close()

			c := openrouter.New(openrouter.Options{URL: slow.URL, APIKey: "sk-test", Timeout: 20 * time.Millisecond})
			_, err := c.Complete(ctx, request)

			var tErr *openrouter.TransportError
			Expect(errors.As(err, &tErr)).To(BeTrue())
		})
	})
})
