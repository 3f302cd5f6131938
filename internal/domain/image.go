package domain

import (
	"image"
	"io"
)

// Image описывает сжатое изображение, которое записывается в S3
type Image struct {
	Bucket      string
	ObjectKey   string
	Bytes       []byte
	Size        int64
	ContentType string // Example: "image/webp"
}

func NewImage(bucket string, objectKey string, data []byte, contentType string) *Image {
	return &Image{
		Bucket:      bucket,
		ObjectKey:   objectKey,
		Bytes:       data,
		Size:        int64(len(data)),
		ContentType: contentType,
	}
}

// SourceImage — декодированное исходное изображение. Живёт только в рамках одной загрузки.
type SourceImage struct {
	Image    image.Image
	Width    int // естественная ширина в пикселях
	Height   int // естественная высота в пикселях
	Size     int64
	MimeType string // заявленный клиентом тип
}

// CompressedImage — результат сжатия. Size никогда не превышает бюджет, иначе сжатие завершается ошибкой.
type CompressedImage struct {
	Data     []byte
	MimeType string
	Size     int64
	Width    int
	Height   int
	Quality  float64 // ступень качества, на которой уложились в бюджет
	Attempts int
}

// SourceFile — файл, выбранный пользователем. Open выдаёт временный дескриптор на байты,
// который потребитель обязан закрыть.
type SourceFile struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

func NewSourceFile(name, contentType string, size int64, open func() (io.ReadCloser, error)) *SourceFile {
	return &SourceFile{
		Name:        name,
		ContentType: contentType,
		Size:        size,
		Open:        open,
	}
}
