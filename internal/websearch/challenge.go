package websearch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/AlosedAG/contract-finder/internal/models"
)

// ChallengeHandler clears a CAPTCHA or bot-check page out of band, for example
// by asking a human to solve it in a browser. Resolve may block until done and
// must return when ctx is cancelled.
type ChallengeHandler interface {
	Resolve(ctx context.Context, q models.SearchQuery, pageURL string) error
}

// ChallengeFunc adapts a function to ChallengeHandler.
type ChallengeFunc func(ctx context.Context, q models.SearchQuery, pageURL string) error

// Resolve calls f.
func (f ChallengeFunc) Resolve(ctx context.Context, q models.SearchQuery, pageURL string) error {
	return f(ctx, q, pageURL)
}

// PromptHandler asks the user to solve the challenge in a browser and press
// Enter. Prompts are serialized.
type PromptHandler struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// NewPromptHandler creates a PromptHandler reading from in and writing to out.
func NewPromptHandler(in io.Reader, out io.Writer) *PromptHandler {
	return &PromptHandler{in: bufio.NewReader(in), out: out}
}

// Resolve implements ChallengeHandler.
func (p *PromptHandler) Resolve(ctx context.Context, q models.SearchQuery, pageURL string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "\nThe search engine asked for a CAPTCHA while running:\n  %s\n", q.Text)
	fmt.Fprintf(p.out, "Open %s in a browser, solve it, then press Enter to continue.\n", pageURL)

	done := make(chan error, 1)
	go func() {
		_, err := p.in.ReadString('\n')
		done <- err
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
