package chat

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/agenthands/loubot/internal/collab"
)

const SensorUnavailable = "I cannot access sensor data right now."

var (
	checkObjectPattern = regexp.MustCompile(`\{\{CHECK_OBJECT_([^}]+)\}\}`)
	countObjectPattern = regexp.MustCompile(`\{\{COUNT_OBJECTS_([^}]+)\}\}`)

	sensorPlaceholders = []string{
		"{{BATTERY_LEVEL}}",
		"{{TEMPERATURE}}",
		"{{CURRENT_HEIGHT}}",
		"{{CURRENT_SPEED}}",
		"{{FLIGHT_TIME}}",
		"{{BAROMETER}}",
	}
)

// Renderer fills {{...}} placeholders in scripted bot responses from live
// detections and telemetry. Either source may be nil.
type Renderer struct {
	detections *collab.DetectionStore
	telemetry  collab.TelemetrySource
	logger     *zap.Logger
}

func NewRenderer(detections *collab.DetectionStore, telemetry collab.TelemetrySource, logger *zap.Logger) *Renderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{detections: detections, telemetry: telemetry, logger: logger.Named("render")}
}

func (r *Renderer) Render(ctx context.Context, session, text string) string {
	if !strings.Contains(text, "{{") {
		return text
	}

	var dets []collab.Detection
	if r.detections != nil {
		dets = r.detections.Current(session)
	}

	if strings.Contains(text, "{{CURRENT_DETECTIONS}}") {
		text = strings.ReplaceAll(text, "{{CURRENT_DETECTIONS}}", describeDetections(dets))
	}
	text = checkObjectPattern.ReplaceAllStringFunc(text, func(m string) string {
		object := placeholderObject(checkObjectPattern, m)
		return r.checkObject(session, dets, object)
	})
	text = countObjectPattern.ReplaceAllStringFunc(text, func(m string) string {
		object := strings.TrimRight(placeholderObject(countObjectPattern, m), "s")
		return r.countObjects(session, dets, object)
	})
	if strings.Contains(text, "{{VISION_STATUS}}") {
		text = strings.ReplaceAll(text, "{{VISION_STATUS}}", r.visionStatus(dets))
	}

	return r.renderSensors(ctx, text)
}

func placeholderObject(p *regexp.Regexp, m string) string {
	sub := p.FindStringSubmatch(m)
	return strings.TrimSpace(strings.ToLower(strings.ReplaceAll(sub[1], "*", "")))
}

func describeDetections(dets []collab.Detection) string {
	if len(dets) == 0 {
		return "I don't see any objects in my current field of view."
	}
	names := make([]string, 0, len(dets))
	for _, d := range dets {
		names = append(names, d.Name)
	}
	return "I can see: " + strings.Join(names, ", ")
}

func (r *Renderer) checkObject(session string, dets []collab.Detection, object string) string {
	if len(dets) == 0 {
		return fmt.Sprintf("I don't see any %s. My visual sensors are not detecting anything currently.", object)
	}
	if _, ok := r.detections.Find(session, object); ok {
		return fmt.Sprintf("Yes, I can see a %s in my field of view!", object)
	}
	return fmt.Sprintf("No, I don't see any %s right now.", object)
}

func (r *Renderer) countObjects(session string, dets []collab.Detection, object string) string {
	if len(dets) == 0 {
		return fmt.Sprintf("I don't see any %ss. My visual sensors are not detecting anything right now.", object)
	}
	n := r.detections.Count(session, object)
	switch n {
	case 0:
		return fmt.Sprintf("I don't see any %ss in my current field of view.", object)
	case 1:
		return fmt.Sprintf("I can see 1 %s.", object)
	default:
		return fmt.Sprintf("I can see %d %ss.", n, object)
	}
}

func (r *Renderer) visionStatus(dets []collab.Detection) string {
	if r.detections == nil {
		return "My vision system is currently disabled."
	}
	if len(dets) == 0 {
		return "Yes, my vision system is operational but I don't see any objects right now."
	}
	return fmt.Sprintf("Yes, my vision system is working perfectly! I can currently see %d objects.", len(dets))
}

func (r *Renderer) renderSensors(ctx context.Context, text string) string {
	wanted := false
	for _, p := range sensorPlaceholders {
		if strings.Contains(text, p) {
			wanted = true
			break
		}
	}
	if !wanted {
		return text
	}

	t, err := r.snapshot(ctx)
	if err != nil {
		r.logger.Warn("telemetry unavailable", zap.Error(err))
		for _, p := range sensorPlaceholders {
			text = strings.ReplaceAll(text, p, SensorUnavailable)
		}
		return text
	}

	return strings.NewReplacer(
		"{{BATTERY_LEVEL}}", fmt.Sprintf("My battery level is at %d%%.", t.Battery),
		"{{TEMPERATURE}}", fmt.Sprintf("The temperature range is %s. Lowest: %d°C, Highest: %d°C.",
			t.TemperatureRange, t.LowestTemperature, t.HighestTemperature),
		"{{CURRENT_HEIGHT}}", fmt.Sprintf("I am currently at a height of %d cm above the ground.", t.Height),
		"{{CURRENT_SPEED}}", fmt.Sprintf("My current speed is %d cm/s.", t.Speed),
		"{{FLIGHT_TIME}}", flightTime(t.FlightTime),
		"{{BAROMETER}}", fmt.Sprintf("The barometric pressure is %s mbar.", strconv.FormatFloat(t.Barometer, 'f', -1, 64)),
	).Replace(text)
}

func (r *Renderer) snapshot(ctx context.Context) (*collab.Telemetry, error) {
	if r.telemetry == nil {
		return nil, collab.ErrNoTelemetry
	}
	return r.telemetry.Snapshot(ctx)
}

func flightTime(seconds int) string {
	if m := seconds / 60; m > 0 {
		return fmt.Sprintf("I have been flying for %d minutes and %d seconds.", m, seconds%60)
	}
	return fmt.Sprintf("I have been flying for %d seconds.", seconds)
}
