package ebiten

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/jetsetilly/testvga/resources"
)

type windowGeometry struct {
	x, y int
	w, h int
}

func (g windowGeometry) valid() bool {
	return g.x >= 0 && g.y >= 0 && g.w > 0 && g.h > 0
}

func onWindowOpen() (windowGeometry, error) {
	var geom windowGeometry

	s, err := resources.Read("window")
	if err != nil {
		return geom, err
	}

	_, err = fmt.Sscanf(s, "%d %d %d %d", &geom.x, &geom.y, &geom.w, &geom.h)
	if err != nil {
		return geom, err
	}

	if geom.valid() {
		ebiten.SetWindowPosition(geom.x, geom.y)
		ebiten.SetWindowSize(geom.w, geom.h)
	}

	return geom, nil
}

func onWindowClose(geom windowGeometry) error {
	s := fmt.Sprintf("%d %d %d %d", geom.x, geom.y, geom.w, geom.h)
	return resources.Write("window", s)
}
