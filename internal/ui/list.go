package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/imx/internal/models"
	"github.com/desertthunder/imx/internal/shared"
)

var (
	_ list.Item = imageItem{}
)

// imageItem wraps [models.Image] to implement [list.Item], carrying the
// selection flag so the delegate can render the marker.
type imageItem struct {
	image    models.Image
	selected bool
}

func (i imageItem) FilterValue() string { return i.image.Name }

func (i imageItem) Title() string {
	marker := "[ ]"
	if i.selected {
		marker = "[x]"
	}
	title := fmt.Sprintf("%s %s", marker, i.image.Name)
	if i.image.Deleted() {
		title += " " + styles.warn.Render("(deleted)")
	}
	return title
}

func (i imageItem) Description() string {
	age := shared.FormatAge(i.image.CreatedAt, time.Now().UTC())
	if i.image.Deleted() {
		return fmt.Sprintf("%s old • was on %s", age, i.image.LocationNames())
	}
	return fmt.Sprintf("%s old • %s", age, i.image.LocationNames())
}
