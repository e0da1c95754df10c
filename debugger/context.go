package debugger

import (
	"github.com/jetsetilly/testvga/hardware/spec"
)

type context struct {
	requestedSpec string
	breaks        []error
	useOverlay    bool
}

func (ctx *context) Spec() spec.Spec {
	switch ctx.requestedSpec {
	case "VGA":
		return spec.VGA
	case "SVGA":
		return spec.SVGA
	}

	panic("currently unsupported specification")
}

func (ctx *context) Reset() {
	ctx.breaks = ctx.breaks[:0]
}

func (ctx *context) Break(e error) {
	ctx.breaks = append(ctx.breaks, e)
}

func (ctx *context) UseOverlay() bool {
	return ctx.useOverlay
}
