package layouts

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/nfrund/yauth/internal/view"
)

const htmxScript = `<script src="https://unpkg.com/htmx.org@1.9.12"></script>`

// Base wraps content in the HTML document shell shared by every page.
func Base(title string, flash view.FlashData, content templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8">`+
			`<meta name="viewport" content="width=device-width, initial-scale=1">`+
			`<title>`+templ.EscapeString(CalculateTitle(title))+`</title>`+
			htmxScript+`</head><body><main class="container">`); err != nil {
			return err
		}
		if err := writeFlashes(w, "flash flash-success", flash.Success); err != nil {
			return err
		}
		if err := writeFlashes(w, "flash flash-error", flash.Error); err != nil {
			return err
		}
		if err := content.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, `</main></body></html>`)
		return err
	})
}

func writeFlashes(w io.Writer, class string, messages []string) error {
	for _, msg := range messages {
		if _, err := io.WriteString(w, `<div class="`+class+`" role="status">`+templ.EscapeString(msg)+`</div>`); err != nil {
			return err
		}
	}
	return nil
}
