package imgx

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png" // 注册 PNG 解码器（服务器主图不一定总是 jpeg）
)

// EnsureJPEG 把下载到的海报字节统一为 JPEG（落盘文件固定 .jpg 后缀）。
//
// 约束：
// - 输入允许是 JPEG/PNG（依赖标准库解码器）
// - 已经是 JPEG：原样返回，不做重编码（避免无谓的质量损失）
// - 其它格式：解码后重编码为 JPEG
func EnsureJPEG(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("图片数据为空")
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if format == "jpeg" {
		return data, nil
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("图片尺寸无效")
	}

	var out bytes.Buffer
	// 质量：不需要太“讲究”，但要稳定可用；95 在体积与质量之间比较均衡。
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
