package decode

// go-astiav exposes no wrapper for avcodec_flush_buffers, so call it directly
// through the raw codec context pointer the library provides.

// #cgo pkg-config: libavcodec
// #include <libavcodec/avcodec.h>
import "C"

import (
	"github.com/asticode/go-astiav"
)

func flushCodecBuffers(cc *astiav.CodecContext) {
	C.avcodec_flush_buffers((*C.AVCodecContext)(cc.UnsafePointer()))
}
