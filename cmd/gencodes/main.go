// Command gencodes produces the activation code pool file consumed by the
// license endpoints: a base64-encoded JSON document holding 6-digit codes.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"flag"
	"fmt"
	"math/big"
	"os"

	"github.com/sirupsen/logrus"
)

var (
	countFlag = flag.Int("n", 10, "number of activation codes to generate")
	outFlag   = flag.String("o", "sysdata.dat", "output file")
)

func main() {
	flag.Parse()
	if *countFlag <= 0 {
		logrus.Fatal("n debe ser mayor que cero")
	}

	seen := map[string]bool{}
	codes := make([]string, 0, *countFlag)
	for len(codes) < *countFlag {
		n, err := rand.Int(rand.Reader, big.NewInt(1000000))
		if err != nil {
			logrus.Fatalf("error generando código: %v", err)
		}
		code := fmt.Sprintf("%06d", n.Int64())
		if seen[code] {
			continue
		}
		seen[code] = true
		codes = append(codes, code)
	}

	raw, err := json.MarshalIndent(map[string][]string{"activation_codes": codes}, "", "  ")
	if err != nil {
		logrus.Fatalf("error serializando códigos: %v", err)
	}
	encoded := base64.StdEncoding.EncodeToString(raw)
	if err := os.WriteFile(*outFlag, []byte(encoded), 0o644); err != nil {
		logrus.Fatalf("error escribiendo %s: %v", *outFlag, err)
	}
	logrus.Infof("%d códigos escritos en %s", len(codes), *outFlag)
}
