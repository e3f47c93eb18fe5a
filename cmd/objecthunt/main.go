package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/ayusman/objecthunt/internal/app"
	"github.com/ayusman/objecthunt/internal/config"
	"github.com/ayusman/objecthunt/internal/game"
	"github.com/ayusman/objecthunt/internal/server"
	"github.com/ayusman/objecthunt/internal/store"
	"github.com/ayusman/objecthunt/internal/tray"
)

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the YAML config file")
	flag.Parse()

	fmt.Println("ObjectHunt - two player object hunt")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	a, err := app.New(app.Config{Settings: cfg, Store: st})
	if err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer a.Close()

	if err := a.SeedPresets(); err != nil {
		log.Printf("Failed to seed presets: %v", err)
	}
	if err := a.DiscoverHooks(); err != nil {
		log.Printf("Failed to discover hooks: %v", err)
	}

	hub := server.NewHub()
	defer hub.Close()
	a.SubscribePublisher(hub)

	webDir := cfg.Server.StaticDir
	if webDir == "" {
		webDir = findWebDir()
	}
	if webDir != "" {
		fmt.Printf("Serving static files from: %s\n", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:      webDir,
		Store:          st,
		Game:           a,
		Frames:         a.Frames(),
		Hub:            hub,
		ValidateLabels: a.ValidateLabels,
	})
	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDone := make(chan error, 1)
	go func() { appDone <- a.Run(ctx) }()

	go func() {
		fmt.Printf("Starting server on %s\n", cfg.Server.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Server failed: %v", err)
			stop()
		}
	}()

	if cfg.Tray.Enabled {
		// systray needs the main goroutine
		t := newTray(a, cfg.Server.Addr, stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
	} else {
		<-ctx.Done()
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if err := <-appDone; err != nil {
		log.Printf("Game loop stopped: %v", err)
	}
	log.Println("Shut down")
}

func newTray(a *app.App, addr string, quit func()) *tray.Tray {
	t := tray.New()
	a.Subscribe(func(ev game.Event) { t.Update(ev) })

	t.OnNextTurn(func() {
		if err := a.NextTurn(context.Background()); err != nil {
			log.Printf("Next player: %v", err)
		}
	})
	t.OnEndGame(func() {
		if err := a.End(context.Background()); err != nil {
			log.Printf("End game: %v", err)
		}
	})
	t.OnOpenBrowser(func() {
		if err := openBrowser(browserURL(addr)); err != nil {
			log.Printf("Open browser: %v", err)
		}
	})
	t.OnQuit(quit)
	return t
}

func browserURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	name := "xdg-open"
	if runtime.GOOS == "darwin" {
		name = "open"
	}
	return exec.Command(name, url).Start()
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "objecthunt.yaml"
	}
	return filepath.Join(homeDir, ".objecthunt", "config.yaml")
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.objecthunt/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".objecthunt", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
