// Package dataset reads calibration samples. Pixel values are scaled to
// [0, 1] and every sample is stored channel-major (CHW).
package dataset

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"nvmcc/internal/config"
)

type Sample struct {
	Channels int
	Height   int
	Width    int
	Data     []float32
	Label    int
}

const pixelMax = 255

const (
	cntkLabels   = "|labels"
	cntkFeatures = "|features"
	cntkSide     = 28
)

// LoadCNTK reads the CNTK text format used for MNIST: one sample per line,
// a one-hot label vector followed by 28x28 pixel intensities.
func LoadCNTK(r io.Reader, limit int) ([]Sample, error) {
	var samples []Sample
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	line := 0
	for (limit < 0 || len(samples) < limit) && sc.Scan() {
		line += 1
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		s, err := cntkSample(text)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		samples = append(samples, s)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read CNTK text")
	}
	return samples, nil
}

func cntkSample(text string) (Sample, error) {
	i := strings.Index(text, cntkLabels)
	j := strings.Index(text, cntkFeatures)
	if i < 0 || j < 0 {
		return Sample{}, errors.New("expected " + cntkLabels + " and " + cntkFeatures)
	}
	var labels, features string
	if i < j {
		labels, features = text[i+len(cntkLabels):j], text[j+len(cntkFeatures):]
	} else {
		features, labels = text[j+len(cntkFeatures):i], text[i+len(cntkLabels):]
	}
	s := Sample{
		Channels: 1,
		Height:   cntkSide,
		Width:    cntkSide,
		Label:    -1,
	}
	for k, field := range strings.Fields(labels) {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return Sample{}, errors.Wrap(err, "label")
		}
		if v != 0 {
			s.Label = k
		}
	}
	if s.Label < 0 {
		return Sample{}, errors.New("no hot label")
	}
	fields := strings.Fields(features)
	if len(fields) != cntkSide*cntkSide {
		return Sample{}, errors.Errorf("%d features, expected %d", len(fields), cntkSide*cntkSide)
	}
	s.Data = make([]float32, len(fields))
	for k, field := range fields {
		v, err := strconv.ParseFloat(field, 32)
		if err != nil {
			return Sample{}, errors.Wrap(err, "feature")
		}
		s.Data[k] = float32(v / pixelMax)
	}
	return s, nil
}

const (
	cifarSide    = 32
	cifarPlanes  = 3
	cifarPixels  = cifarSide * cifarSide * cifarPlanes
	cifarRecord  = 1 + cifarPixels
	cifarClasses = 10
)

// LoadCIFAR10 reads the CIFAR-10 binary format: each record is a label
// byte followed by the red, green, and blue 32x32 planes.
func LoadCIFAR10(r io.Reader, limit int) ([]Sample, error) {
	var samples []Sample
	rec := make([]byte, cifarRecord)
	for limit < 0 || len(samples) < limit {
		if _, err := io.ReadFull(r, rec); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrapf(err, "record %d", len(samples))
		}
		label := int(rec[0])
		if label >= cifarClasses {
			return nil, errors.Errorf("record %d: label %d out of range", len(samples), label)
		}
		s := Sample{
			Channels: cifarPlanes,
			Height:   cifarSide,
			Width:    cifarSide,
			Data:     make([]float32, cifarPixels),
			Label:    label,
		}
		for k, b := range rec[1:] {
			s.Data[k] = float32(b) / pixelMax
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// Load dispatches on the configured loader.
func Load(l config.Loader, r io.Reader, limit int) ([]Sample, error) {
	switch l {
	case config.CNTK:
		return LoadCNTK(r, limit)
	case config.CIFAR10:
		return LoadCIFAR10(r, limit)
	}
	return nil, errors.Errorf("unknown loader %d", l)
}
