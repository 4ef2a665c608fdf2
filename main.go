// Command cloudview runs the point-cloud display daemon: it subscribes to a
// cloud stream (MQTT and/or UDP), drives the display pipeline at a fixed
// tick rate and serves the property panel, the websocket point stream and
// metrics over HTTP.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/banshee-data/cloudview/internal/api"
	"github.com/banshee-data/cloudview/internal/config"
	"github.com/banshee-data/cloudview/internal/display"
	"github.com/banshee-data/cloudview/internal/properties"
	"github.com/banshee-data/cloudview/internal/render"
	"github.com/banshee-data/cloudview/internal/source"
	"github.com/banshee-data/cloudview/internal/tf"
)

func main() {
	configPath := flag.String("config", "", "path to JSON config file")
	httpListen := flag.String("http", "", "HTTP listen address (overrides config)")
	mqttBroker := flag.String("mqtt-broker", "", "MQTT broker URL (overrides config)")
	udpListen := flag.String("udp", "", "UDP listen address for cloud frames (overrides config)")
	fixedFrame := flag.String("fixed-frame", "", "fixed frame name (overrides config)")
	flag.Parse()

	cfg := &config.Config{}
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Loading config: %v", err)
		}
		cfg = loaded
	}
	if *httpListen != "" {
		cfg.HTTPListen = httpListen
	}
	if *mqttBroker != "" {
		cfg.MQTTBroker = mqttBroker
	}
	if *udpListen != "" {
		cfg.UDPListen = udpListen
	}
	if *fixedFrame != "" {
		cfg.FixedFrame = fixedFrame
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	resolver := tf.NewStaticResolver()
	for frame, pose := range cfg.Frames {
		var T [16]float64
		copy(T[:], pose)
		resolver.SetFrame(frame, T)
	}

	buffer := render.NewPointBuffer()
	publisher := render.NewPublisher(buffer, 0)

	d := display.New(display.Config{
		Name:          "PointCloud",
		Renderer:      buffer,
		Resolver:      resolver,
		FixedFrame:    cfg.GetFixedFrame(),
		RequestRender: publisher.RequestRender,
	})
	props := properties.NewManager()
	d.CreateProperties(props)

	if t := cfg.GetDecayTime(); t > 0 {
		d.SetDecayTime(t)
	}
	if s := cfg.GetBillboardSize(); s > 0 {
		d.SetBillboardSize(s)
	}

	if broker := cfg.GetMQTTBroker(); broker != "" {
		src, err := source.NewMQTTSource(source.MQTTSourceConfig{
			Broker:   broker,
			Topic:    cfg.GetMQTTTopic(),
			ClientID: cfg.GetMQTTClientID(),
			Username: os.Getenv("MQTT_USERNAME"),
			Password: os.Getenv("MQTT_PASSWORD"),
			Handler:  d.AddMessage,
		})
		if err != nil {
			log.Fatalf("Starting MQTT source: %v", err)
		}
		defer src.Close()
	}

	if addr := cfg.GetUDPListen(); addr != "" {
		udp := source.NewUDPSource(source.UDPSourceConfig{
			Address: addr,
			Handler: d.AddMessage,
		})
		go func() {
			if err := udp.Start(ctx); err != nil && ctx.Err() == nil {
				log.Printf("UDP source stopped: %v", err)
			}
		}()
	}

	// Display tick loop.
	go func() {
		interval := time.Duration(float64(time.Second) / cfg.GetUpdateHz())
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		last := time.Now()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				d.Update(float32(now.Sub(last).Seconds()))
				last = now
			}
		}
	}()

	server := api.NewServer(d, props)
	server.SnapshotHandler = publisher.Handler

	httpServer := &http.Server{
		Addr:    cfg.GetHTTPListen(),
		Handler: server.Router(),
	}
	go func() {
		log.Printf("cloudview listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown: %v", err)
	}
}
