// Package fetch downloads source PDF documents from the web: either a direct
// file URL, or a listing page whose anchors are scanned for PDF links.
package fetch

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"
	"github.com/deckwash/deckwash/common"
	"github.com/gocolly/colly/v2"
)

var ErrMaxRetry = errors.New("max retry")

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Options controls collector behaviour for one fetch session.
type Options struct {
	MaxRetry  int
	Timeout   time.Duration
	UserAgent string
}

func newCollector(options Options) *colly.Collector {
	collector := colly.NewCollector(
		colly.UserAgent(common.GetStrOr(options.UserAgent, defaultUserAgent)),
		colly.MaxDepth(1),
	)
	collector.SetRequestTimeout(common.GetDurationOr(options.Timeout, 30*time.Second))

	collector.OnError(func(resp *colly.Response, err error) {
		cnt, retryErr := RetryRequest(resp.Request)
		if retryErr == nil {
			log.Warnf("request failed, retry %d: %s", cnt, resp.Request.URL)
		} else {
			log.Errorf("request failed: %s: %s", resp.Request.URL, err)
		}
	})

	return collector
}

func visitWithRetry(collector *colly.Collector, target string, maxRetry int) error {
	ctx := colly.NewContext()
	ctx.Put("maxRetryCnt", maxRetry)

	return collector.Request("GET", target, nil, ctx, nil)
}

// RetryRequest reads `retryCnt` and `maxRetryCnt` from request context. If
// current retry count is less than max retry count, this function retries given
// request, else a `ErrMaxRetry` will be retruned.
// This function returns retry count after operation, and error happenes during
// operation.
func RetryRequest(req *colly.Request) (int, error) {
	ctx := req.Ctx

	maxRetryCnt, _ := ctx.GetAny("maxRetryCnt").(int)

	retryCnt, _ := ctx.GetAny("retryCnt").(int)
	if retryCnt >= maxRetryCnt {
		return retryCnt, ErrMaxRetry
	}

	retryCnt++
	ctx.Put("retryCnt", retryCnt)

	return retryCnt, req.Retry()
}

// CollectDocumentLinks fetches a listing page and returns absolute URLs of
// all PDF links found in its anchors, sorted and deduplicated.
func CollectDocumentLinks(pageURL string, options Options) ([]string, error) {
	collector := newCollector(options)

	linkSet := map[string]bool{}
	var parseErr error

	collector.OnResponse(func(resp *colly.Response) {
		body, err := DecompressResponseBody(resp)
		if err != nil {
			parseErr = err
			return
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
		if err != nil {
			parseErr = fmt.Errorf("failed to parse listing page: %s", err)
			return
		}

		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			href, _ := sel.Attr("href")
			abs := resp.Request.AbsoluteURL(href)
			if abs != "" && isPDFLink(abs) {
				linkSet[abs] = true
			}
		})
	})

	if err := visitWithRetry(collector, pageURL, options.MaxRetry); err != nil {
		return nil, fmt.Errorf("failed to fetch listing page %s: %s", pageURL, err)
	}
	collector.Wait()

	if parseErr != nil {
		return nil, parseErr
	}

	links := make([]string, 0, len(linkSet))
	for link := range linkSet {
		links = append(links, link)
	}
	sort.Strings(links)

	return links, nil
}

func isPDFLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}

	return strings.EqualFold(path.Ext(u.Path), ".pdf")
}

// DownloadFile saves the document at given URL to outputName.
func DownloadFile(target string, outputName string, options Options) error {
	collector := newCollector(options)

	var saveErr error
	collector.OnResponse(func(resp *colly.Response) {
		if err := resp.Save(outputName); err == nil {
			log.Infof("file downloaded: %s", outputName)
		} else {
			saveErr = fmt.Errorf("failed to save file %s: %s", outputName, err)
		}
	})

	if err := visitWithRetry(collector, target, options.MaxRetry); err != nil {
		return fmt.Errorf("failed to download %s: %s", target, err)
	}
	collector.Wait()

	return saveErr
}

// OutputNameForURL derives a local file name for a document URL.
func OutputNameForURL(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return "document.pdf"
	}

	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "document.pdf"
	}

	return common.InvalidPathCharReplace(name)
}
