package pdf

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"permanence-system/internal/entities"
	"permanence-system/pkg/config"
)

// ErrFontUnavailable: арабская версия требует TTF-шрифт с поддержкой UTF-8.
var ErrFontUnavailable = errors.New("police UTF-8 indisponible pour l'impression en arabe")

const (
	coreFont = "Helvetica"
	margin   = 15.0
)

type FPDFRenderer struct {
	cfg config.PDFConfig
}

func NewFPDFRenderer(cfg config.PDFConfig) *FPDFRenderer {
	return &FPDFRenderer{cfg: cfg}
}

// doc обёртка над fpdf: шрифт, перевод строк и зеркальное выравнивание для RTL.
type doc struct {
	pdf    *fpdf.Fpdf
	family string
	tr     func(string) string
	rtl    bool
	locale string
	width  float64
}

func (r *FPDFRenderer) utf8Font() (string, bool) {
	if r.cfg.FontDir == "" || r.cfg.FontFamily == "" {
		return "", false
	}
	file := r.cfg.FontFamily + ".ttf"
	if _, err := os.Stat(filepath.Join(r.cfg.FontDir, file)); err != nil {
		return "", false
	}
	return file, true
}

func (r *FPDFRenderer) newDoc(b *Bundle) (*doc, error) {
	p := fpdf.New("P", "mm", "A4", r.cfg.FontDir)
	d := &doc{pdf: p, family: coreFont, rtl: b.IsRTL(), locale: b.Locale}

	if file, ok := r.utf8Font(); ok {
		p.AddUTF8Font(r.cfg.FontFamily, "", file)
		p.AddUTF8Font(r.cfg.FontFamily, "B", file)
		p.AddUTF8Font(r.cfg.FontFamily, "I", file)
		d.family = r.cfg.FontFamily
		d.tr = func(s string) string { return s }
	} else {
		if d.rtl {
			return nil, ErrFontUnavailable
		}
		// core-шрифты понимают только cp1252
		d.tr = p.UnicodeTranslatorFromDescriptor("")
	}
	if d.rtl {
		p.RTL()
	}

	p.SetMargins(margin, margin, margin)
	p.SetAutoPageBreak(true, 20)
	p.AliasNbPages("")
	w, _ := p.GetPageSize()
	d.width = w - 2*margin
	return d, nil
}

func (d *doc) align(a string) string {
	if !d.rtl {
		return a
	}
	switch a {
	case "L":
		return "R"
	case "R":
		return "L"
	}
	return a
}

func (d *doc) font(style string, size float64) {
	d.pdf.SetFont(d.family, style, size)
}

func (d *doc) label(key string) string {
	return d.tr(Label(d.locale, key))
}

func (d *doc) cell(w, h float64, txt, border string, ln int, align string, fill bool) {
	d.pdf.CellFormat(w, h, d.tr(txt), border, ln, d.align(align), fill, 0, "")
}

func (d *doc) section(key string) {
	d.pdf.Ln(3)
	d.font("B", 11)
	d.pdf.SetFillColor(230, 230, 230)
	d.pdf.CellFormat(d.width, 7, d.label(key), "1", 1, d.align("L"), true, 0, "")
	d.pdf.Ln(1)
}

func (d *doc) empty(key string) {
	d.font("I", 9)
	d.pdf.CellFormat(d.width, 6, d.label(key), "", 1, d.align("L"), false, 0, "")
}

func (d *doc) row(widths []float64, values []string, header bool) {
	if header {
		d.font("B", 9)
		d.pdf.SetFillColor(245, 245, 245)
	} else {
		d.font("", 9)
	}
	for i, v := range values {
		ln := 0
		if i == len(values)-1 {
			ln = 1
		}
		d.pdf.CellFormat(widths[i], 6, d.tr(truncate(v, int(widths[i]*0.55))), "1", ln, d.align("L"), header, 0, "")
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 1 || len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (r *FPDFRenderer) Render(w io.Writer, b *Bundle) error {
	if b == nil || b.Shift == nil {
		return fmt.Errorf("pdf: пустой пакет данных")
	}
	d, err := r.newDoc(b)
	if err != nil {
		return err
	}

	footer := b.Header.Footer
	d.pdf.SetFooterFunc(func() {
		d.pdf.SetY(-15)
		d.font("I", 8)
		d.pdf.CellFormat(d.width*0.8, 5, d.tr(footer), "T", 0, d.align("L"), false, 0, "")
		d.pdf.CellFormat(d.width*0.2, 5, fmt.Sprintf("%d/{nb}", d.pdf.PageNo()), "T", 0, d.align("R"), false, 0, "")
	})
	d.pdf.AddPage()

	d.header(b)
	d.info(b)
	d.assignments(b)
	d.events(b)
	d.material(b)
	d.validation(b)

	if d.pdf.Err() {
		return fmt.Errorf("pdf: ошибка построения документа: %w", d.pdf.Error())
	}
	return d.pdf.Output(w)
}

func (d *doc) header(b *Bundle) {
	top := d.pdf.GetY()
	logoW := 22.0
	if b.Header.LogoInstitution != "" {
		d.pdf.ImageOptions(b.Header.LogoInstitution, margin, top, logoW, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	}
	if b.Header.LogoDirection != "" {
		d.pdf.ImageOptions(b.Header.LogoDirection, margin+d.width-logoW, top, logoW, 0, false, fpdf.ImageOptions{ReadDpi: true}, 0, "")
	}
	// картинка с ошибкой не должна ронять печать: fpdf копит ошибку, сбрасываем её
	if d.pdf.Err() {
		d.pdf.ClearError()
	}

	d.font("B", 12)
	d.cell(d.width, 6, b.Header.InstitutionName, "", 1, "C", false)
	d.font("", 10)
	d.cell(d.width, 5, b.Header.DirectionName, "", 1, "C", false)
	d.cell(d.width, 5, b.Header.SystemName, "", 1, "C", false)
	d.pdf.Ln(4)
	d.font("B", 15)
	d.cell(d.width, 9, strings.ToUpper(b.Header.Title), "TB", 1, "C", false)
}

func (d *doc) info(b *Bundle) {
	d.section("permanence_info")
	half := d.width / 2
	line := func(k1, v1, k2, v2 string) {
		d.font("B", 9)
		d.pdf.CellFormat(half*0.45, 6, d.label(k1), "", 0, d.align("L"), false, 0, "")
		d.font("", 9)
		d.cell(half*0.55, 6, v1, "", 0, "L", false)
		d.font("B", 9)
		d.pdf.CellFormat(half*0.45, 6, d.label(k2), "", 0, d.align("L"), false, 0, "")
		d.font("", 9)
		d.cell(half*0.55, 6, v2, "", 1, "L", false)
	}

	officer, matricule := "-", "-"
	if b.Officer != nil {
		officer = b.Officer.FullName()
		if b.Officer.Matricule != nil {
			matricule = *b.Officer.Matricule
		}
	}
	line("date", b.Shift.Date.Format("02/01/2006"), "period", b.Shift.HeureDebut+" - "+b.Shift.HeureFin)
	line("officer", officer, "matricule", matricule)
	line("status", Label(b.Locale, "validated"), "edition_date", b.EditedAt.Format("02/01/2006 15:04"))

	if c := deref(b.Shift.CommentaireOfficier); c != "" {
		d.pdf.Ln(1)
		d.font("B", 9)
		d.pdf.CellFormat(d.width, 6, d.label("officer_comment"), "", 1, d.align("L"), false, 0, "")
		d.font("", 9)
		d.pdf.MultiCell(d.width, 5, d.tr(c), "1", d.align("L"), false)
	}
}

func (d *doc) assignments(b *Bundle) {
	d.section("assigned_personnel")
	if len(b.Assignments) == 0 {
		d.empty("no_sous_officier_events")
		return
	}
	widths := []float64{d.width * 0.6, d.width * 0.4}
	d.row(widths, []string{Label(b.Locale, "sous_officier"), Label(b.Locale, "site")}, true)
	for _, a := range b.Assignments {
		d.row(widths, []string{a.SousOfficierNom, a.SiteNom}, false)
	}
}

func (d *doc) eventTable(locale string, events []entities.RelationManageriale) {
	widths := []float64{d.width * 0.12, d.width * 0.48, d.width * 0.40}
	d.row(widths, []string{Label(locale, "hour"), Label(locale, "event_fact"), Label(locale, "ordered_effects")}, true)
	for _, e := range events {
		d.row(widths, []string{e.HeureEvenement, e.Evenement, deref(e.EffetsOrdonnes)}, false)
	}
}

func (d *doc) groupTitle(g AuthorGroup) {
	d.pdf.Ln(1)
	d.font("B", 9)
	title := g.Name
	if g.Fonction != "" {
		title += " (" + g.Fonction + ")"
	}
	if g.Matricule != "" {
		title += " - " + g.Matricule
	}
	d.cell(d.width, 6, title, "", 1, "L", false)
}

func (d *doc) events(b *Bundle) {
	d.section("managerial_relation")

	d.font("B", 10)
	d.pdf.CellFormat(d.width, 6, d.label("section_officer"), "", 1, d.align("L"), false, 0, "")
	if len(b.OfficerEvents) == 0 {
		d.empty("no_officer_events")
	} else {
		d.eventTable(b.Locale, b.OfficerEvents)
	}

	d.pdf.Ln(2)
	d.font("B", 10)
	d.pdf.CellFormat(d.width, 6, d.label("section_sous_officiers"), "", 1, d.align("L"), false, 0, "")
	if len(b.NCOEvents) == 0 {
		d.empty("no_sous_officier_events")
		return
	}
	for _, g := range b.NCOEvents {
		d.groupTitle(g)
		d.eventTable(b.Locale, g.Events)
	}
}

func (d *doc) materialTable(locale string, items []entities.ReceptionMateriel) {
	widths := []float64{d.width * 0.32, d.width * 0.12, d.width * 0.20, d.width * 0.36}
	d.row(widths, []string{Label(locale, "appareil"), Label(locale, "recu"), Label(locale, "etat"), Label(locale, "commentaire")}, true)
	for _, m := range items {
		recu := Label(locale, "non")
		if m.RecuIntegralite {
			recu = Label(locale, "oui")
		}
		d.row(widths, []string{m.AppareilNom, recu, Label(locale, string(m.EtatFonctionnement)), deref(m.Commentaire)}, false)
	}
}

func (d *doc) material(b *Bundle) {
	d.section("materiel_officier")
	if len(b.OfficerMaterial) == 0 {
		d.empty("materiel_no_officier")
	} else {
		d.materialTable(b.Locale, b.OfficerMaterial)
	}

	d.section("materiel_operateurs")
	if len(b.OperatorMaterial) == 0 {
		d.empty("materiel_no_operateurs")
		return
	}
	for _, g := range b.OperatorMaterial {
		d.groupTitle(g)
		d.materialTable(b.Locale, g.Material)
	}
}

func (d *doc) validation(b *Bundle) {
	d.section("validation")
	half := d.width / 2
	officer := "-"
	if b.Officer != nil {
		officer = b.Officer.FullName()
	}
	validatedAt := "-"
	if b.Shift.ValidatedAt != nil {
		validatedAt = b.Shift.ValidatedAt.Format("02/01/2006 15:04")
	}

	d.font("B", 9)
	d.pdf.CellFormat(half, 6, d.label("officer"), "1", 0, d.align("C"), false, 0, "")
	d.pdf.CellFormat(half, 6, d.label("validation_date"), "1", 1, d.align("C"), false, 0, "")
	d.font("", 9)
	d.cell(half, 6, officer, "1", 0, "C", false)
	d.cell(half, 6, validatedAt, "1", 1, "C", false)
	d.font("B", 9)
	d.pdf.CellFormat(d.width, 6, d.label("signature"), "LR", 1, d.align("C"), false, 0, "")
	d.pdf.CellFormat(d.width, 18, "", "LRB", 1, "C", false, 0, "")
	d.pdf.Ln(2)
	d.font("I", 8)
	d.pdf.CellFormat(d.width, 5, d.label("electronic_validation"), "", 1, d.align("C"), false, 0, "")
}
