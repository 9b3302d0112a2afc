// Command loadtest fires concurrent sale requests at a running server to
// exercise the stock guard and the invoice number collision retry under
// burst load.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	urlFlag     = flag.String("url", "http://localhost:3000", "server base URL")
	salesFlag   = flag.Int("sales", 100, "total sales to send")
	workersFlag = flag.Int("workers", 10, "concurrent workers")
	productFlag = flag.Uint("product", 1, "product id to sell")
	userFlag    = flag.String("user", "", "basic auth user")
	passFlag    = flag.String("pass", "", "basic auth password")
)

type saleRequest struct {
	Items []saleItem `json:"items"`
	Pago  string     `json:"metodo_pago"`
}

type saleItem struct {
	ID       uint    `json:"id"`
	Cantidad int     `json:"cantidad"`
	Precio   float64 `json:"precio"`
}

func main() {
	flag.Parse()

	body, err := json.Marshal(saleRequest{
		Items: []saleItem{{ID: *productFlag, Cantidad: 1, Precio: 100}},
		Pago:  "efectivo",
	})
	if err != nil {
		logrus.Fatalf("error serializando venta: %v", err)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	jobs := make(chan struct{})
	var ok, rejected, failed atomic.Int64
	var wg sync.WaitGroup

	for i := 0; i < *workersFlag; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range jobs {
				req, err := http.NewRequest(http.MethodPost, *urlFlag+"/api/sales", bytes.NewReader(body))
				if err != nil {
					failed.Add(1)
					continue
				}
				req.Header.Set("Content-Type", "application/json")
				if *userFlag != "" {
					req.SetBasicAuth(*userFlag, *passFlag)
				}
				resp, err := client.Do(req)
				if err != nil {
					failed.Add(1)
					continue
				}
				resp.Body.Close()
				switch {
				case resp.StatusCode == http.StatusOK:
					ok.Add(1)
				case resp.StatusCode >= 500:
					rejected.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

	start := time.Now()
	for i := 0; i < *salesFlag; i++ {
		jobs <- struct{}{}
	}
	close(jobs)
	wg.Wait()

	logrus.WithFields(logrus.Fields{
		"ok":       ok.Load(),
		"rejected": rejected.Load(),
		"failed":   failed.Load(),
		"elapsed":  time.Since(start).String(),
	}).Info("carga completada")
}
