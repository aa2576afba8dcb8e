package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/ilkoid/poncho-slides/internal/remote"
	"github.com/ilkoid/poncho-slides/internal/ui"
	"github.com/ilkoid/poncho-slides/pkg/app"
	"github.com/ilkoid/poncho-slides/pkg/deck"
	"github.com/ilkoid/poncho-slides/pkg/events"
	"github.com/ilkoid/poncho-slides/pkg/export"
	"github.com/ilkoid/poncho-slides/pkg/imagesearch"
	"github.com/ilkoid/poncho-slides/pkg/s3storage"
	"github.com/ilkoid/poncho-slides/pkg/slideshow"
	"github.com/ilkoid/poncho-slides/pkg/templates"
	"github.com/ilkoid/poncho-slides/pkg/tui"
	"github.com/ilkoid/poncho-slides/pkg/utils"
)

// cmdView показывает презентацию из файла.
func cmdView(ctx context.Context, comps *app.Components, path string) error {
	d, err := deck.Load(path)
	if err != nil {
		return err
	}
	resolved := resolveImages(ctx, comps, *d)
	return runViewer(ctx, comps, &resolved)
}

// cmdGenerate строит презентацию через LLM.
func cmdGenerate(ctx context.Context, comps *app.Components, f cliFlags, topic string) error {
	orch, err := comps.RequireOrchestrator()
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Generating presentation about %q...\n", topic)
	res, err := orch.Generate(ctx, topic, f.template)
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Done: %d slides, %d tool calls, %d images resolved\n",
		res.Deck.Len(), res.ToolCalls, res.ImagesResolved)

	return emitDeck(ctx, comps, f, res.Deck)
}

// cmdTemplate раскрывает встроенный шаблон без LLM.
func cmdTemplate(ctx context.Context, comps *app.Components, f cliFlags, name, topic string) error {
	tpl, ok := templates.Lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown template %q, using %q\n", name, tpl.Name)
	}
	d := resolveImages(ctx, comps, tpl.Expand(topic))
	return emitDeck(ctx, comps, f, d)
}

// cmdExport экспортирует презентацию из файла.
//
// Просмотрщика нет, поэтому изображения загружаются здесь же:
// не загрузившиеся заменяются маркером.
func cmdExport(ctx context.Context, comps *app.Components, format, path string) error {
	d, err := deck.Load(path)
	if err != nil {
		return err
	}
	resolved := resolveImages(ctx, comps, *d)

	loaded := make([]bool, resolved.Len())
	for i, s := range resolved.Slides {
		if !s.HasImage() {
			continue
		}
		if err := comps.Fetcher.Preload(ctx, s.Image.URL); err != nil {
			fmt.Fprintf(os.Stderr, "Slide %d: image skipped: %v\n", i+1, err)
			continue
		}
		loaded[i] = true
	}

	res, err := comps.Exporter.Export(ctx, export.Request{
		Deck:        resolved,
		ImageLoaded: loaded,
		Format:      format,
	})
	if err != nil {
		if res.Path != "" {
			fmt.Fprintf(os.Stderr, "Saved %s, but: %v\n", res.Path, err)
		}
		return err
	}

	fmt.Printf("Exported %s (%d pages, %d bytes)\n", res.Path, res.Pages, res.Bytes)
	if res.UploadKey != "" {
		fmt.Printf("Uploaded to %s\n", res.UploadKey)
	}
	return nil
}

// cmdExports выводит загруженные в S3 экспорты.
func cmdExports(ctx context.Context, comps *app.Components) error {
	client := comps.Uploader
	if client == nil {
		c, err := s3storage.New(comps.Config.S3)
		if err != nil {
			return fmt.Errorf("S3 is not configured: %w", err)
		}
		client = c
	}

	objects, err := client.ListFiles(ctx)
	if err != nil {
		return fmt.Errorf("list exports: %w", err)
	}
	if len(objects) == 0 {
		fmt.Println("No exports uploaded yet")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSIZE\tMODIFIED")
	for _, o := range objects {
		fmt.Fprintf(w, "%s\t%d\t%s\n", o.Name(), o.Size, o.LastModified.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

// resolveImages заполняет изображения по запросам, если поиск настроен.
func resolveImages(ctx context.Context, comps *app.Components, d deck.Deck) deck.Deck {
	if comps.Searcher == nil {
		return d
	}
	out, n := imagesearch.ResolveDeck(ctx, comps.Searcher, d)
	if n > 0 {
		utils.Info("Images resolved", "count", n)
	}
	return out
}

// emitDeck пишет JSON презентации (-out или stdout) и при -view открывает просмотрщик.
func emitDeck(ctx context.Context, comps *app.Components, f cliFlags, d deck.Deck) error {
	data, err := deck.Marshal(d)
	if err != nil {
		return err
	}

	switch {
	case f.out != "":
		if err := os.WriteFile(f.out, append(data, '\n'), 0o644); err != nil {
			return fmt.Errorf("write deck: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Saved %s\n", f.out)
	case !f.view:
		fmt.Println(string(data))
	}

	if f.view {
		return runViewer(ctx, comps, &d)
	}
	return nil
}

// runViewer связывает контроллер, шину событий, TUI и (опционально) пульт.
func runViewer(ctx context.Context, comps *app.Components, d *deck.Deck) error {
	cfg := comps.Config

	bus := events.NewBus(256)
	defer bus.Close()

	host := ui.NewScreenHost()
	defer host.Close()

	ctrl := slideshow.New(ctx, slideshow.Options{
		Config:    comps.ViewerConfig(),
		Preloader: comps.Fetcher,
		Host:      host,
		Emitter:   bus,
	})
	defer ctrl.Close()

	// Подписка до Load, чтобы TUI получил deck_loaded
	sub := bus.Subscribe()
	ctrl.Load(d)

	altScreen := cfg.Viewer.AltScreen
	if altScreen {
		ctrl.SyncFullscreen(true)
	}

	// Пульт живёт столько же, сколько просмотрщик
	viewerCtx, stopViewer := context.WithCancel(ctx)
	defer stopViewer()
	if cfg.Remote.Addr != "" {
		srv := remote.New(ctrl, bus, cfg.Remote, remote.WithSearcher(comps.Searcher))
		go func() {
			if err := srv.ListenAndServe(viewerCtx, cfg.Remote.Addr); err != nil {
				utils.Error("Remote control stopped", "error", err)
			}
		}()
	}

	model := ui.New(viewerCtx, ui.Options{
		Controller: ctrl,
		Events:     sub,
		Host:       host,
		Exporter:   comps.Exporter,
		Theme:      deck.Theme(cfg.Viewer.Theme),
	})

	_, err := tui.Run(viewerCtx, model, tui.RunOptions{AltScreen: altScreen})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	utils.Info("Viewer closed")
	return nil
}
