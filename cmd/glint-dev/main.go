// glint-dev supervises a worker command during development. It starts the
// autoreload control-plane server, restarts the worker whenever watched files
// change, and forwards the worker's output through a lifecycle watcher so
// connected browser tabs reload once the new instance announces it is ready.
//
// Usage:
//
//	glint-dev [flags] -- command [args...]
//
// The worker inherits GLINT_AUTORELOAD_PORT and GLINT_AUTORELOAD_SECRET, so a
// worker built with glint can also notify readiness itself instead of
// printing a marker line.
package main

import (
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-glint/glint"
)

const debounceWindow = 200 * time.Millisecond

func main() {
	port := flag.Int("port", 0, "control-plane port (0 picks a free port)")
	appPort := flag.Int("app-port", 3000, "application server port")
	appURL := flag.String("app-url", "", "externally visible application URL (overrides -app-port)")
	open := flag.Bool("open", false, "open the application in a browser after the first successful start")
	watch := flag.String("watch", ".", "directory tree to watch for changes")
	ext := flag.String("ext", ".go", "comma-separated file extensions that trigger a restart")
	ready := flag.String("ready-marker", "", "log line substring that marks worker startup complete")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: glint-dev [flags] -- command [args...]")
		os.Exit(2)
	}

	srv, err := glint.StartServer(glint.Options{
		Port:          *port,
		AppPort:       *appPort,
		AppURL:        *appURL,
		LaunchBrowser: *open,
	})
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}
	defer srv.Close()

	restart, err := watchTree(*watch, splitExts(*ext))
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}

	watcher := glint.NewLifecycleWatcher(glint.LifecycleHooks{
		StartupMarker: *ready,
	})

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	for {
		cmd := exec.Command(args[0], args[1:]...)
		cmd.Env = os.Environ()
		cmd.Stdout = io.MultiWriter(os.Stdout, watcher)
		cmd.Stderr = io.MultiWriter(os.Stderr, watcher)
		if err := cmd.Start(); err != nil {
			log.Fatalf("[fatal] start worker: %v", err)
		}

		exited := make(chan error, 1)
		go func() { exited <- cmd.Wait() }()

		select {
		case <-restart:
			watcher.Scan(glint.ReloadingLine)
			_ = cmd.Process.Kill()
			<-exited
		case err := <-exited:
			if err != nil {
				log.Printf("[warn] msg=%q", fmt.Sprintf("worker exited: %v", err))
			}
			// A worker that exits on its own is restarted on the next change.
			<-restart
			watcher.Scan(glint.ReloadingLine)
		case <-interrupt:
			_ = cmd.Process.Kill()
			<-exited
			return
		}
	}
}

// watchTree watches dir recursively and emits a debounced restart tick when a
// file with one of the given extensions changes.
func watchTree(dir string, exts []string) (<-chan struct{}, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && !strings.HasPrefix(d.Name(), ".") {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	restart := make(chan struct{}, 1)
	go func() {
		var timer *time.Timer
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if !matchesExt(ev.Name, exts) {
					continue
				}
				if timer == nil {
					timer = time.AfterFunc(debounceWindow, func() {
						select {
						case restart <- struct{}{}:
						default:
						}
					})
				} else {
					timer.Reset(debounceWindow)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Printf("[warn] msg=%q", fmt.Sprintf("watch error: %v", err))
			}
		}
	}()
	return restart, nil
}

func splitExts(s string) []string {
	var exts []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts = append(exts, e)
	}
	return exts
}

func matchesExt(name string, exts []string) bool {
	if len(exts) == 0 {
		return true
	}
	for _, e := range exts {
		if strings.HasSuffix(name, e) {
			return true
		}
	}
	return false
}
