package services

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/anjiri1684/gym_studio/models"
	"github.com/anjiri1684/gym_studio/services/serverrors"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

//go:embed templates/statement.html
var statementHTML string

var statementTemplate = template.Must(template.New("statement").Parse(statementHTML))

const statementExpiryWarning = 7 * 24 * time.Hour

// PDFRenderer turns an HTML document into a PDF.
type PDFRenderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
}

// FileStore uploads a generated file and returns its public URL.
type FileStore interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
}

type StatementService struct {
	credits  *CreditService
	renderer PDFRenderer
	store    FileStore
	log      *slog.Logger
}

func NewStatementService(credits *CreditService, renderer PDFRenderer, store FileStore, log *slog.Logger) *StatementService {
	if log == nil {
		log = credits.log
	}
	return &StatementService{credits: credits, renderer: renderer, store: store, log: log}
}

type statementPass struct {
	Name         string
	Remaining    int
	Total        int
	Unlimited    bool
	ExpiresAt    string
	ExpiringSoon bool
}

type statementLine struct {
	Date         string
	Type         string
	Amount       string
	BalanceAfter int
}

type statementData struct {
	MemberName   string
	MemberEmail  string
	GeneratedAt  string
	Balance      int
	Unlimited    bool
	Passes       []statementPass
	Transactions []statementLine
}

// Generate renders the member's ledger to PDF, uploads it and records the
// statement.
func (s *StatementService) Generate(ctx context.Context, p Principal, memberID uuid.UUID) (models.CreditStatement, error) {
	var stmt models.CreditStatement
	if s.renderer == nil || s.store == nil {
		return stmt, serverrors.InvalidState("credit statements are not configured")
	}

	summary, err := s.credits.GetMemberCredits(ctx, p, memberID)
	if err != nil {
		return stmt, err
	}
	member, err := s.credits.findMember(ctx, s.credits.db, memberID)
	if err != nil {
		return stmt, err
	}

	var txs []models.ClassCreditTransaction
	if err := s.credits.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at ASC").
		Find(&txs).Error; err != nil {
		return stmt, err
	}

	now := s.credits.clock()
	html, err := renderStatement(member, summary, txs, now)
	if err != nil {
		return stmt, fmt.Errorf("render statement: %w", err)
	}

	pdf, err := s.renderer.Render(ctx, html)
	if err != nil {
		return stmt, fmt.Errorf("print statement: %w", err)
	}

	url, err := s.store.Upload(ctx, pdf, fmt.Sprintf("statements/%s_%s", memberID, uuid.NewString()))
	if err != nil {
		return stmt, fmt.Errorf("upload statement: %w", err)
	}

	stmt = models.CreditStatement{
		MemberID:     memberID,
		URL:          url,
		Balance:      summary.Balance,
		GeneratedAt:  now,
		Transactions: len(txs),
	}
	if err := s.credits.db.WithContext(ctx).Create(&stmt).Error; err != nil {
		return stmt, err
	}

	s.log.Info("✅ credit statement generated", slog.String("member_id", memberID.String()), slog.String("url", url))
	return stmt, nil
}

func renderStatement(member models.Member, summary CreditSummary, txs []models.ClassCreditTransaction, now time.Time) (string, error) {
	data := statementData{
		MemberName:  member.FullName,
		MemberEmail: member.Email,
		GeneratedAt: now.Format("January 2, 2006 15:04 MST"),
		Balance:     summary.Balance,
		Unlimited:   summary.Unlimited,
	}
	for _, p := range summary.Passes {
		data.Passes = append(data.Passes, statementPass{
			Name:         p.ClassPackage.Name,
			Remaining:    p.RemainingCredits,
			Total:        p.TotalCredits,
			Unlimited:    p.MonthlyUnlimited,
			ExpiresAt:    p.ExpiresAt.Format("January 2, 2006"),
			ExpiringSoon: expiresWithin(p, now, statementExpiryWarning),
		})
	}
	for _, t := range txs {
		data.Transactions = append(data.Transactions, statementLine{
			Date:         t.CreatedAt.Format("2006-01-02 15:04"),
			Type:         string(t.Type),
			Amount:       fmt.Sprintf("%+d", t.Amount),
			BalanceAfter: t.BalanceAfter,
		})
	}

	var rendered bytes.Buffer
	if err := statementTemplate.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

// ChromePDF prints HTML through a headless Chrome.
type ChromePDF struct{}

func (ChromePDF) Render(ctx context.Context, html string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(ctx)
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, html).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryStore(cloudinaryURL, folder string) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromURL(cloudinaryURL)
	if err != nil {
		return nil, err
	}
	return &CloudinaryStore{cld: cld, folder: folder}, nil
}

func (c *CloudinaryStore) Upload(ctx context.Context, data []byte, name string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	uploadResult, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     name,
		Folder:       c.folder,
		ResourceType: "raw",
	})
	if err != nil {
		return "", err
	}
	return uploadResult.SecureURL, nil
}
