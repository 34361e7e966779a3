// A live guestbook: entries live in SQLite, every connected tab gets new
// entries pushed over SSE, and the autoreload middleware keeps tabs current
// across code reloads during development.
package main

import (
	"bytes"
	"context"
	"database/sql"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-glint/glint"
	_ "github.com/mattn/go-sqlite3"
	"github.com/starfederation/datastar-go/datastar"
	g "maragu.dev/gomponents"
	gh "maragu.dev/gomponents/html"
)

const autoreloadJS = `(() => {
  const url = document.currentScript.dataset.wsUrl;
  if (!url) return;
  new WebSocket(url).onmessage = () => location.reload();
})();`

func page(entries g.Node) g.Node {
	return gh.Doctype(
		gh.HTML(
			gh.Head(
				gh.TitleEl(g.Text("Guestbook")),
				gh.Script(gh.Type("module"), gh.Src("https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0/bundles/datastar.js")),
			),
			gh.Body(
				g.Attr("data-on-load", "@get('/_updates')"),
				gh.H1(g.Text("Guestbook")),
				gh.FormEl(
					gh.Method("post"), gh.Action("/sign"),
					gh.Input(gh.Name("name"), gh.Placeholder("Name")),
					gh.Input(gh.Name("message"), gh.Placeholder("Message")),
					gh.Button(gh.Type("submit"), g.Text("Sign")),
				),
				entries,
			),
		),
	)
}

func main() {
	srv, err := glint.StartServer(glint.Options{AppPort: 3000})
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}
	defer srv.Close()

	db, err := sql.Open("sqlite3", "guestbook.db")
	if err != nil {
		log.Fatalf("[fatal] %v", err)
	}
	defer db.Close()
	if _, err := db.Exec(`create table if not exists entries (name text not null, message text not null)`); err != nil {
		log.Fatalf("[fatal] %v", err)
	}

	// One pulse per new entry wakes every connected tab's update stream.
	changed := glint.NewSignal()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /__shared/glint-autoreload.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		_, _ = w.Write([]byte(autoreloadJS))
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		entries, err := renderEntriesHTML(db)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		var b bytes.Buffer
		if err := page(g.Raw(entries)).Render(&b); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Length", strconv.Itoa(b.Len()))
		_, _ = w.Write(b.Bytes())
	})
	mux.HandleFunc("POST /sign", func(w http.ResponseWriter, r *http.Request) {
		name, message := r.FormValue("name"), r.FormValue("message")
		if name != "" && message != "" {
			if _, err := db.Exec(`insert into entries (name, message) values (?, ?)`, name, message); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			changed.Pulse()
		}
		http.Redirect(w, r, "/", http.StatusSeeOther)
	})
	mux.HandleFunc("GET /_updates", func(w http.ResponseWriter, r *http.Request) {
		sse := datastar.NewSSE(w, r)
		for {
			entries, err := renderEntriesHTML(db)
			if err != nil {
				return
			}
			if err := sse.PatchElements(entries); err != nil {
				return
			}
			if err := changed.Wait(r.Context()); err != nil {
				return
			}
		}
	})

	handler := glint.InjectReloadScriptHTTP(glint.AutoreloadURL())(mux)

	// Announce readiness directly instead of log sniffing.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = glint.NotifyReloadEnd(ctx)
	}()

	log.Fatalf("[fatal] %v", http.ListenAndServe(":3000", handler))
}

func renderEntriesHTML(db *sql.DB) (string, error) {
	rows, err := db.Query(`select name, message from entries order by rowid desc`)
	if err != nil {
		return "", err
	}
	defer rows.Close()

	list, err := RenderEntries(rows)
	if err != nil {
		return "", err
	}
	var b bytes.Buffer
	if err := list.Render(&b); err != nil {
		return "", err
	}
	return b.String(), nil
}
