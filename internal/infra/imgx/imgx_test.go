package imgx

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func testImage(w, h int) image.Image {
	src := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src.Set(x, y, color.RGBA{200, 100, 50, 255})
		}
	}
	return src
}

func TestEnsureJPEG_JPEGPassthrough(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testImage(40, 60), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}
	in := buf.Bytes()

	out, err := EnsureJPEG(in)
	if err != nil {
		t.Fatalf("EnsureJPEG 失败：%v", err)
	}
	// 已经是 JPEG：必须原样返回（不重编码）。
	if !bytes.Equal(out, in) {
		t.Fatalf("JPEG 输入被重编码了")
	}
}

func TestEnsureJPEG_PNGReencoded(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testImage(40, 60)); err != nil {
		t.Fatalf("encode png 失败：%v", err)
	}

	out, err := EnsureJPEG(buf.Bytes())
	if err != nil {
		t.Fatalf("EnsureJPEG 失败：%v", err)
	}

	got, format, err := image.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode 输出失败：%v", err)
	}
	if format != "jpeg" {
		t.Fatalf("期望输出 jpeg，实际 %q", format)
	}
	gb := got.Bounds()
	if gb.Dx() != 40 || gb.Dy() != 60 {
		t.Fatalf("尺寸不符合预期：got=%dx%d", gb.Dx(), gb.Dy())
	}
}

func TestEnsureJPEG_Empty(t *testing.T) {
	if _, err := EnsureJPEG(nil); err == nil {
		t.Fatalf("期望空输入返回错误")
	}
}

func TestEnsureJPEG_Garbage(t *testing.T) {
	if _, err := EnsureJPEG([]byte("not an image")); err == nil {
		t.Fatalf("期望非图片输入返回错误")
	}
}
