package app

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/hinosalt/bobg-hp/internal/content"
	"github.com/hinosalt/bobg-hp/internal/render"
	"github.com/hinosalt/bobg-hp/internal/sitecontent"
)

// runValidate はコンテンツファイルをstrict検証する。
// 違反は1件ずつログに出し、1件でもあればエラーを返す。
func runValidate(args []string, output io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(output)
	file := fs.String("file", content.DefaultContentPath, "path to site-content.json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := loadDocument(*file)
	if err != nil {
		return err
	}

	violations := doc.ValidateStrict()
	for _, v := range violations {
		slog.Error("content violation",
			slog.String("file", *file),
			slog.String("error", v.Error()),
		)
	}
	if len(violations) > 0 {
		return fmt.Errorf("%s: %d violation(s)", *file, len(violations))
	}

	slog.Info("content is valid", slog.String("file", *file))
	return nil
}

// runRender はコンテンツとテンプレートから指定ロケールのHTMLを生成する。
// -outを省略した場合はstdoutに書き出す。
func runRender(args []string, stdout, output io.Writer) error {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(output)
	contentPath := fs.String("content", content.DefaultContentPath, "path to site-content.json")
	templatePath := fs.String("template", "index.html", "path to the HTML template")
	locale := fs.String("locale", "ja", "locale to render (ja|en)")
	base := fs.String("base", "", "asset path prefix for the rendered page")
	outPath := fs.String("out", "", "output file (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	doc, err := loadDocument(*contentPath)
	if err != nil {
		return err
	}
	siteContent, err := doc.Content()
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", *contentPath, err)
	}

	page, coverage, err := render.NewPage(siteContent, *locale, *base)
	if err != nil {
		return err
	}
	if !coverage.Empty() {
		slog.Warn("content slots not bound to the page",
			slog.String("locale", *locale),
			slog.Any("texts", coverage.MissingTexts),
			slog.Any("images", coverage.MissingImages),
		)
	}

	template, err := os.Open(*templatePath)
	if err != nil {
		return fmt.Errorf("failed to open template: %w", err)
	}
	defer template.Close()

	w := stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return fmt.Errorf("failed to create output: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := page.Render(w, template); err != nil {
		return err
	}

	slog.Info("page rendered",
		slog.String("locale", *locale),
		slog.String("out", *outPath),
	)
	return nil
}

func loadDocument(path string) (*sitecontent.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("content file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	doc, err := sitecontent.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}
