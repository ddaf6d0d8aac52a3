// package formatter provides functions to export image listings to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/shared"
)

// ListingToCSV converts an image listing to CSV format with columns: ID, Name, Locations, Created, Deleted
func ListingToCSV(images []models.Image) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "Locations", "Created", "Deleted"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, img := range images {
		deleted := ""
		if img.DeletedAt != nil {
			deleted = img.DeletedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			img.ID,
			img.Name,
			img.LocationNames(),
			img.CreatedAt.UTC().Format(time.RFC3339),
			deleted,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ListingToMarkdown converts an image listing to a Markdown table, with deleted
// images annotated rather than omitted.
func ListingToMarkdown(images []models.Image, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Images"
	}
	buf.WriteString(fmt.Sprintf("# %s\n\n", title))
	buf.WriteString(fmt.Sprintf("**Count**: %d\n\n", len(images)))

	buf.WriteString("| Name | Locations | Created | Status |\n")
	buf.WriteString("| ---- | --------- | ------- | ------ |\n")
	for _, img := range images {
		status := "active"
		if img.Deleted() {
			status = "deleted"
		}
		buf.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
			img.Name, img.LocationNames(), img.CreatedAt.UTC().Format(time.RFC3339), status))
	}

	return buf.Bytes(), nil
}

// ListingToText converts an image listing to plain text format
func ListingToText(images []models.Image) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Images: %d\n\n", len(images)))

	now := time.Now().UTC()
	for i, img := range images {
		line := fmt.Sprintf("%d. %s (%s, %s old)", i+1, img.Name, img.LocationNames(), shared.FormatAge(img.CreatedAt, now))
		if img.Deleted() {
			line += " [deleted]"
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ListingToJSON generates a pretty-printed JSON representation of an image listing
func ListingToJSON(images []models.Image) ([]byte, error) {
	return shared.MarshalJSON(images, true)
}

// WriteListing renders images in the given format (csv, markdown, txt, json)
// and writes the result to path. Returns the path written.
//
// Defaults to images.{ext} when path is empty.
func WriteListing(images []models.Image, format, path string) (string, error) {
	var (
		data []byte
		err  error
		ext  string
	)

	switch format {
	case "csv":
		data, err = ListingToCSV(images)
		ext = "csv"
	case "markdown", "md":
		data, err = ListingToMarkdown(images, "")
		ext = "md"
	case "json":
		data, err = ListingToJSON(images)
		ext = "json"
	case "txt", "text", "":
		data, err = ListingToText(images)
		ext = "txt"
	default:
		return "", fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
	if err != nil {
		return "", fmt.Errorf("failed to render %s listing: %w", format, err)
	}

	if path == "" {
		path = "images." + ext
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write listing file: %w", err)
	}

	return path, nil
}
