// Package collaborator provides the default implementations of the external
// stage functions: an HTTP fetcher plus LLM extraction for the target
// profile, document extraction feeding the similarity index, and the
// LLM-backed derivation and generation stages.
package collaborator

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"

	"ai-scholarmatch-be/internal/constant"
	"ai-scholarmatch-be/internal/entity"
	"ai-scholarmatch-be/internal/pkg/apperror"
	"ai-scholarmatch-be/internal/pkg/logger"
	"ai-scholarmatch-be/pkg/llm"
	"ai-scholarmatch-be/pkg/stage"
	"ai-scholarmatch-be/pkg/utils"
)

const (
	chunkSize    = 1500
	chunkOverlap = 200

	// maxFetchBytes caps how much of a scholarship page is read.
	maxFetchBytes = 2 << 20
)

type LLMCollaborators struct {
	llmProvider llm.LLMProvider
	httpClient  *http.Client
	logger      logger.ILogger
}

func NewLLMCollaborators(llmProvider llm.LLMProvider, log logger.ILogger) *LLMCollaborators {
	return &LLMCollaborators{
		llmProvider: llmProvider,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		logger:      log,
	}
}

var _ stage.Collaborators = (*LLMCollaborators)(nil)

// IngestTarget fetches the scholarship page and extracts a structured
// profile from its visible text.
func (c *LLMCollaborators) IngestTarget(ctx context.Context, in stage.IngestTargetInput) (*stage.IngestTargetOutput, error) {
	rawText, err := c.fetchPageText(ctx, in.SourceRef)
	if err != nil {
		return nil, err
	}

	prompt := fmt.Sprintf(constant.TargetProfilePromptV1, rawText)
	response, err := c.llmProvider.Generate(ctx, prompt, llm.WithTemperature(0.1))
	if err != nil {
		return nil, fmt.Errorf("profile extraction: %w", err)
	}

	var profile entity.TargetProfile
	if err := unmarshalLLMJSON(response, &profile); err != nil {
		return nil, fmt.Errorf("profile extraction: %w", err)
	}
	if profile.Name == "" {
		return nil, fmt.Errorf("profile extraction: page yielded no scholarship name")
	}

	return &stage.IngestTargetOutput{Profile: profile, RawText: rawText}, nil
}

// IngestDocument reads the applicant document, splits it, and populates the
// session index as a side effect. The chunk count reported is the count the
// index accepted, not the count produced by the splitter.
func (c *LLMCollaborators) IngestDocument(ctx context.Context, in stage.IngestDocumentInput) (*stage.IngestDocumentOutput, error) {
	raw, err := os.ReadFile(in.DocumentRef)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", in.DocumentRef, err)
	}

	text := strings.TrimSpace(string(raw))
	if text == "" {
		return nil, apperror.Validation("document %s is empty", in.DocumentRef)
	}

	chunks := utils.SplitText(text, chunkSize, chunkOverlap)
	added, err := in.Index.Add(ctx, chunks)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("collaborator", "document indexed", map[string]interface{}{
		"document_ref": in.DocumentRef,
		"chunks":       added,
	})
	return &stage.IngestDocumentOutput{ExtractedText: text, ChunkCount: added}, nil
}

var htmlTagPattern = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]+>`)

// fetchPageText downloads the source page and reduces it to visible text.
// Structured understanding of the text is delegated to the LLM, so markup
// only needs to be stripped, not parsed.
func (c *LLMCollaborators) fetchPageText(ctx context.Context, sourceRef string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceRef, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", sourceRef, err)
	}
	req.Header.Set("User-Agent", "scholarmatch-fetcher/1.0")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", sourceRef, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: unexpected status %d", sourceRef, res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxFetchBytes))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", sourceRef, err)
	}

	text := htmlTagPattern.ReplaceAllString(string(body), " ")
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return "", fmt.Errorf("fetch %s: page has no visible text", sourceRef)
	}
	return text, nil
}
