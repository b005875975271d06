// Package resources bundles the files the application loads at runtime.
package resources

import (
	"embed"

	"fyne.io/fyne/v2"
)

// MainWindowLayout is the logical path of the main window's layout inside Layouts.
const MainWindowLayout = "layouts/main_window.yaml"

//go:embed icons/app_64.png
var iconData []byte

func GetAppIcon() fyne.Resource {
	return &fyne.StaticResource{
		StaticName:    "app_64.png",
		StaticContent: iconData,
	}
}

//go:embed layouts/*.yaml
var Layouts embed.FS
