package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	upDesc = prometheus.NewDesc(
		"gige_up", "Was the last discovery successful.", nil, nil,
	)
	scrapeDurationDesc = prometheus.NewDesc(
		"gige_scrape_duration_seconds", "Time taken by the last discovery.", nil, nil,
	)
	cameraCountDesc = prometheus.NewDesc(
		"gige_cameras_total", "Cameras seen per host interface.", []string{"interface"}, nil,
	)
	cameraReachableDesc = prometheus.NewDesc(
		"gige_camera_reachable", "Camera is reachable from its interface.", []string{"serial", "name", "interface"}, nil,
	)
	cameraBusyDesc = prometheus.NewDesc(
		"gige_camera_busy", "Camera is in use by another process.", []string{"serial"}, nil,
	)
	cameraInfoDesc = prometheus.NewDesc(
		"gige_camera_info", "Static camera attributes.", []string{"serial", "model", "mac", "ip", "firmware"}, nil,
	)
)

// Collector exposes the fleet's last discovery as metrics.
type Collector struct {
	Fleet *Fleet
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- upDesc
	ch <- scrapeDurationDesc
	ch <- cameraCountDesc
	ch <- cameraReachableDesc
	ch <- cameraBusyDesc
	ch <- cameraInfoDesc
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.Fleet.Snapshot()

	up := 1.0
	if snap.Err != nil || snap.At.IsZero() {
		up = 0.0
	}
	ch <- prometheus.MustNewConstMetric(upDesc, prometheus.GaugeValue, up)
	ch <- prometheus.MustNewConstMetric(scrapeDurationDesc, prometheus.GaugeValue, snap.Duration.Seconds())

	perInterface := make(map[string]float64)
	for _, cam := range snap.Cameras {
		iface := cam.InterfaceName
		if iface == "" {
			iface = "unknown"
		}
		perInterface[iface]++

		ch <- prometheus.MustNewConstMetric(cameraReachableDesc, prometheus.GaugeValue, boolValue(cam.IsReachable), cam.Serial, cam.UserDefinedName, iface)
		ch <- prometheus.MustNewConstMetric(cameraBusyDesc, prometheus.GaugeValue, boolValue(cam.IsBusy), cam.Serial)
		ch <- prometheus.MustNewConstMetric(cameraInfoDesc, prometheus.GaugeValue, 1, cam.Serial, cam.ModelName, cam.MACAddress, cam.CurrentIP, cam.FirmwareVersion)
	}
	for iface, n := range perInterface {
		ch <- prometheus.MustNewConstMetric(cameraCountDesc, prometheus.GaugeValue, n, iface)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
