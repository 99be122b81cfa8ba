package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/oasynth/oasynth/render"
)

func newServeCmd() *cobra.Command {
	var (
		addr string
		ui   string
	)

	cmd := &cobra.Command{
		Use:   "serve <schema-file>",
		Short: "Serve a schema document with interactive documentation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read schema: %w", err)
			}

			docsUI, err := parseUI(ui)
			if err != nil {
				return err
			}

			filename := filepath.Base(args[0])
			handler := render.FileHandler(data, filename, &render.HandlerConfig{
				UI:    docsUI,
				Title: filename,
			})

			server := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}
			fmt.Fprintf(cmd.OutOrStdout(), "serving %s on http://%s/\n", filename, addr)
			return server.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "localhost:8080", "Listen address")
	cmd.Flags().StringVar(&ui, "ui", "swagger", "Docs UI: swagger, redoc, or rapidoc")

	return cmd
}

func parseUI(name string) (render.DocsUI, error) {
	switch name {
	case "swagger", "":
		return render.DocsSwaggerUI, nil
	case "redoc":
		return render.DocsRedoc, nil
	case "rapidoc":
		return render.DocsRapiDoc, nil
	}
	return 0, newUsageError(fmt.Sprintf("serve: unknown docs UI %q", name))
}
