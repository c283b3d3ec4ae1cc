package common

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gen2brain/avif"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/ccitt"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// If given `value` is not empty, returns it. Else `defaultValue` will be returned.
func GetStrOr(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	} else {
		return value
	}
}

// GetIntOr returns `value` if it is greater than zero, else `defaultValue`
// will be returned.
func GetIntOr(value, defaultValue int) int {
	if value <= 0 {
		return defaultValue
	} else {
		return value
	}
}

// GetDurationOr takes two duration value, if the first value is greater
// than or equal to zero, then this function return this value, else the second
// value will be returned.
func GetDurationOr(timeout, defaultValue time.Duration) time.Duration {
	if timeout < 0 {
		return defaultValue
	} else {
		return timeout
	}
}

// LogBannerMsg prints a block of message to log.
func LogBannerMsg(msgs []string, paddingLen int) {
	maxLen := 0
	for i := range msgs {
		l := len(msgs[i])
		if l > maxLen {
			maxLen = l
		}
	}

	padding := strings.Repeat(" ", paddingLen)
	stem := strings.Repeat("─", maxLen+paddingLen*2)

	log.Info("╭" + stem + "╮")
	for _, line := range msgs {
		log.Info("│" + padding + line + strings.Repeat(" ", maxLen-len(line)) + padding + " ")
	}
	log.Info("╰" + stem + "╯")
}

const (
	ImageFormatAvif = "avif"
	ImageFormatBmp  = "bmp"
	ImageFormatJpeg = "jpeg"
	ImageFormatPng  = "png"
	ImageFormatTiff = "tiff"
)

var AllImageFormats = []string{
	ImageFormatAvif,
	ImageFormatBmp,
	ImageFormatJpeg,
	ImageFormatPng,
	ImageFormatTiff,
}

// EncodeImageAs writes a decoded image to output in given format. Returns file
// extension matching the format actually used. Unknown format falls back to PNG.
func EncodeImageAs(img image.Image, output io.Writer, outputFormat string) (string, error) {
	var err error
	var outputExt string

	switch outputFormat {
	case ImageFormatAvif:
		err = avif.Encode(output, img)
		outputExt = ImageFormatAvif
	case ImageFormatBmp:
		err = bmp.Encode(output, img)
		outputExt = ImageFormatBmp
	case ImageFormatJpeg:
		err = jpeg.Encode(output, img, nil)
		outputExt = ImageFormatJpeg
	case ImageFormatPng:
		err = png.Encode(output, img)
		outputExt = ImageFormatPng
	case ImageFormatTiff:
		err = tiff.Encode(output, img, nil)
		outputExt = ImageFormatTiff
	default:
		err = png.Encode(output, img)
		outputExt = ImageFormatPng
	}

	if err != nil {
		return "", fmt.Errorf("failed to encode image as %s: %s", outputExt, err)
	}

	return outputExt, nil
}

// ConvertImageTo decodes image data from input and re-encodes it to output in
// given format.
func ConvertImageTo(input io.Reader, output io.Writer, outputFormat string) (string, error) {
	img, _, err := image.Decode(input)
	if err != nil {
		return "", fmt.Errorf("image decoding failed: %s", err)
	}

	return EncodeImageAs(img, output, outputFormat)
}

// SaveImageAs converts a decoded image to given format then saves it to disk.
func SaveImageAs(img image.Image, outputName string, outputFormat string) error {
	file, err := os.Create(outputName)
	if err != nil {
		return fmt.Errorf("failed to create output image file %s: %s", outputName, err)
	}
	defer file.Close()

	bufWriter := bufio.NewWriter(file)
	defer bufWriter.Flush()

	_, err = EncodeImageAs(img, bufWriter, outputFormat)
	if err != nil {
		return fmt.Errorf("failed to save image %s: %s", outputName, err)
	}

	return nil
}

// ConvertImageData treats given byte slice as raw image data, and converts it
// to given format then saves it to disk.
func ConvertImageData(data []byte, outputName string, outputFormat string) error {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("image decoding failed: %s", err)
	}

	return SaveImageAs(img, outputName, outputFormat)
}

// GetPageOutputBasename returns file name used for a dumped page image.
func GetPageOutputBasename(pageIndex int, format string) string {
	return fmt.Sprintf("page-%04d.%s", pageIndex, format)
}
