package library

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/mrlokans/readsync/internal/entities"
	"github.com/mrlokans/readsync/internal/storage"
)

// Problem kinds reported by Verify.
const (
	ProblemMissing          = "missing"
	ProblemSizeMismatch     = "size_mismatch"
	ProblemChecksumMismatch = "checksum_mismatch"
	ProblemUnreadable       = "unreadable"
)

const auditBatchSize = 100

// AuditIssue is one catalog row whose stored object failed verification.
type AuditIssue struct {
	FileID   string `json:"fileId"`
	Location string `json:"location"`
	Problem  string `json:"problem"`
	Detail   string `json:"detail,omitempty"`
}

// AuditReport summarises a Verify run. Verify never modifies the catalog or
// the stored objects.
type AuditReport struct {
	Backend    string       `json:"backend"`
	Deep       bool         `json:"deep"`
	Checked    int          `json:"checked"`
	Healthy    int          `json:"healthy"`
	Issues     []AuditIssue `json:"issues,omitempty"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt time.Time    `json:"finishedAt"`
}

func (r *AuditReport) OK() bool { return len(r.Issues) == 0 }

// Count returns the number of issues of the given problem kind.
func (r *AuditReport) Count(problem string) int {
	n := 0
	for _, is := range r.Issues {
		if is.Problem == problem {
			n++
		}
	}
	return n
}

// Verify checks that every cataloged book is present with the cataloged
// size. A deep run also re-hashes each object.
func (r *Repository) Verify(ctx context.Context, deep bool) (*AuditReport, error) {
	report := &AuditReport{
		Backend:   r.backend.Name(),
		Deep:      deep,
		StartedAt: time.Now(),
	}

	err := r.catalog.Each(auditBatchSize, func(book entities.Book) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		report.Checked++
		if issue := r.verifyOne(ctx, book, deep); issue != nil {
			report.Issues = append(report.Issues, *issue)
			return nil
		}
		report.Healthy++
		return nil
	})
	report.FinishedAt = time.Now()
	if err != nil {
		return report, err
	}

	log.Printf("[AUDIT] %s library: %d checked, %d healthy, %d issues (deep=%t)",
		report.Backend, report.Checked, report.Healthy, len(report.Issues), deep)
	return report, nil
}

func (r *Repository) verifyOne(ctx context.Context, book entities.Book, deep bool) *AuditIssue {
	issue := func(problem, detail string) *AuditIssue {
		return &AuditIssue{FileID: book.FileID, Location: book.Location, Problem: problem, Detail: detail}
	}

	info, err := r.backend.Stat(ctx, book.Location)
	if errors.Is(err, storage.ErrNotExist) {
		return issue(ProblemMissing, "")
	}
	if err != nil {
		return issue(ProblemUnreadable, err.Error())
	}
	if info.Size != book.FileSize {
		return issue(ProblemSizeMismatch, fmt.Sprintf("stored %d bytes, cataloged %d", info.Size, book.FileSize))
	}
	if !deep {
		return nil
	}

	rc, err := r.backend.Open(ctx, book.Location)
	if err != nil {
		return issue(ProblemUnreadable, err.Error())
	}
	defer rc.Close()

	h := sha256.New()
	if _, err := io.Copy(h, &ctxReader{ctx: ctx, r: rc}); err != nil {
		return issue(ProblemUnreadable, err.Error())
	}
	if actual := hex.EncodeToString(h.Sum(nil)); actual != book.SHA256 {
		return issue(ProblemChecksumMismatch, "stored digest "+actual)
	}
	return nil
}
