package httpapi

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kayp514/vgtpbx-cloudmvp-sub000/internal/config"
	"github.com/kayp514/vgtpbx-cloudmvp-sub000/internal/fsxml"
)

// XMLCurlHandler dispatches mod_xml_curl requests to the resolver matching
// the binding path segment. It always answers with a well-formed document:
// unknown bindings get the generic not-found, dialplan failures are
// downgraded to not-found so call routing falls through to the switch's
// next source, and only directory/configuration store failures surface as
// HTTP 500.
func XMLCurlHandler(cfg *config.Config, db fsxml.Queryer, logger *slog.Logger) http.HandlerFunc {
	directory := &fsxml.DirectoryService{DB: db}
	configuration := &fsxml.ConfigurationService{DB: db}
	dialplan := &fsxml.DialplanService{
		DB:                db,
		Log:               logger,
		PublicContextMode: cfg.Dialplan.PublicContextMode,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			// No XML here: the caller cannot know which schema to expect
			// before the body parses.
			http.Error(w, "invalid form body", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), cfg.QueryTimeout)
		defer cancel()

		form := r.PostForm
		binding := chi.URLParam(r, "binding")

		var (
			doc    *fsxml.Document
			err    error
			status = http.StatusOK
		)

		switch binding {
		case "directory":
			doc, err = directory.BuildDirectory(ctx, form.Get("purpose"), form.Get("user"), form.Get("domain"))
			if err != nil {
				logger.Error("directory lookup failed", "user", form.Get("user"), "domain", form.Get("domain"), "error", err)
				doc = fsxml.ErrorResult("directory lookup failed")
				status = http.StatusInternalServerError
			}
		case "dialplan":
			req := fsxml.DialplanRequest{
				CallerContext:     firstOf(form.Get("Caller-Context"), form.Get("Hunt-Context")),
				Hostname:          firstOf(form.Get("hostname"), form.Get("FreeSWITCH-Switchname")),
				DestinationNumber: form.Get("Caller-Destination-Number"),
			}
			doc, err = dialplan.BuildDialplan(ctx, req)
			if err != nil {
				// Fail closed: a transient read failure must not abort the
				// call leg, so the switch sees a plain not-found and tries
				// its next context.
				logger.Error("dialplan resolution failed", "context", req.CallerContext, "destination", req.DestinationNumber, "error", err)
				doc = fsxml.NotFound()
			}
		case "configuration":
			doc, err = configuration.BuildConfiguration(ctx,
				form.Get("section"), form.Get("tag_name"), form.Get("key_name"), form.Get("key_value"))
			if err != nil {
				logger.Error("configuration lookup failed", "key_value", form.Get("key_value"), "error", err)
				doc = fsxml.ErrorResult("configuration lookup failed")
				status = http.StatusInternalServerError
			}
		case "languages":
			doc = fsxml.BuildLanguage(firstOf(form.Get("lang"), form.Get("language")))
		default:
			doc = fsxml.NotFound()
		}

		writeXML(w, status, doc)
	}
}

func writeXML(w http.ResponseWriter, status int, doc *fsxml.Document) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	_ = enc.Encode(doc)
}

func firstOf(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
