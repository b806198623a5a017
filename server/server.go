package server

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"mime"
	"net/http"
	_ "net/http/pprof"
	"net/textproto"
	"net/url"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/julienschmidt/httprouter"

	"molt/logger"
	. "molt/server/errors"
	"molt/server/migrations"
	"molt/server/record"
	"molt/utils"
)

type MoltApp struct {
	router *httprouter.Router
}

func GetApp() *MoltApp {
	return &MoltApp{
		router: httprouter.New(),
	}
}

func (app *MoltApp) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	app.router.ServeHTTP(w, req)
}

//Molt server description
type MoltServer struct {
	addr, port, root string
	s                *http.Server
	registry         *migrations.Registry
	transforms       migrations.TransformTable
}

func New(host, port, urlPrefix string) *MoltServer {
	return &MoltServer{
		addr:       host,
		port:       port,
		root:       urlPrefix,
		registry:   migrations.NewRegistry(),
		transforms: migrations.TransformTable{},
	}
}

func (ms *MoltServer) SetAddr(a string) {
	ms.addr = a
}

func (ms *MoltServer) SetPort(p string) {
	ms.port = p
}

func (ms *MoltServer) SetRoot(r string) {
	ms.root = r
}

//SetRegistry replaces the server`s registry with one populated elsewhere,
//eg loaded from a migration manifest at startup.
func (ms *MoltServer) SetRegistry(registry *migrations.Registry) {
	ms.registry = registry
}

//SetTransforms seeds the table resolving modify transforms referenced by
//name from declarative migration descriptions.
func (ms *MoltServer) SetTransforms(transforms migrations.TransformTable) {
	ms.transforms = transforms
}

func (ms *MoltServer) Setup(config *utils.AppConfig) *http.Server {
	app := GetApp()

	migrationFactory := migrations.NewMigrationFactory(ms.transforms)

	//type operations
	app.router.GET(ms.root+"/types", CreateJsonAction(func(_ *JsonSource, js *JsonSink, _ httprouter.Params, _ url.Values, _ *http.Request) {
		var result []interface{}
		for _, chain := range ms.registry.List() {
			result = append(result, chainForExport(chain))
		}
		js.pushList(result, len(result))
	}))

	app.router.GET(ms.root+"/types/:name", CreateJsonAction(func(_ *JsonSource, js *JsonSink, p httprouter.Params, _ url.Values, _ *http.Request) {
		if chain, e := ms.registry.Chain(p.ByName("name")); e == nil {
			js.pushObj(chainForExport(chain))
		} else {
			js.pushError(e)
		}
	}))

	app.router.POST(ms.root+"/types", CreateJsonAction(func(src *JsonSource, js *JsonSink, _ httprouter.Params, _ url.Values, _ *http.Request) {
		name, ok := src.single["name"].(string)
		if !ok || name == "" {
			js.pushError(&ServerError{Status: http.StatusBadRequest, Code: ErrBadRequest, Msg: "Type registration requires a 'name' attribute"})
			return
		}
		if chain, e := ms.registry.Add(name); e == nil {
			logger.Info("Registered type '%s'", name)
			js.pushObj(chainForExport(chain))
		} else {
			js.pushError(e)
		}
	}))

	//migration operations
	app.router.POST(ms.root+"/migrations", CreateJsonAction(func(src *JsonSource, js *JsonSink, _ httprouter.Params, _ url.Values, _ *http.Request) {
		migrationDescription, err := migrations.MigrationDescriptionFromJson(bytes.NewReader(src.body))
		if err != nil {
			js.pushError(err)
			return
		}
		chain, err := ms.registry.Chain(migrationDescription.ApplyTo)
		if err != nil {
			js.pushError(err)
			return
		}
		step, err := migrationFactory.Factory(migrationDescription)
		if err != nil {
			js.pushError(err)
			return
		}
		if err := chain.Append(step); err != nil {
			js.pushError(err)
			return
		}
		logger.Info("Appended migration #%d to type '%s'", chain.Length(), chain.Name())
		js.pushObj(chainForExport(chain))
	}))

	//record operations
	app.router.POST(ms.root+"/data/:name/migrate", CreateJsonAction(func(src *JsonSource, js *JsonSink, p httprouter.Params, _ url.Values, _ *http.Request) {
		chain, err := ms.registry.Chain(p.ByName("name"))
		if err != nil {
			js.pushError(err)
			return
		}
		if src.single == nil {
			js.pushError(&ServerError{Status: http.StatusBadRequest, Code: ErrBadRequest, Msg: "Request body must contain a single record"})
			return
		}
		if migrated, e := chain.Advance(record.Record(src.single)); e == nil {
			js.pushObj(map[string]interface{}(migrated))
		} else {
			js.pushError(e)
		}
	}))

	app.router.POST(ms.root+"/data/:name/tag", CreateJsonAction(func(src *JsonSource, js *JsonSink, p httprouter.Params, _ url.Values, _ *http.Request) {
		chain, err := ms.registry.Chain(p.ByName("name"))
		if err != nil {
			js.pushError(err)
			return
		}
		if src.single == nil {
			js.pushError(&ServerError{Status: http.StatusBadRequest, Code: ErrBadRequest, Msg: "Request body must contain a single record"})
			return
		}
		tagged := chain.Tag(record.Record(src.single))
		js.pushObj(map[string]interface{}(tagged))
	}))

	app.router.GET(ms.root+"/probe", CreateJsonAction(func(_ *JsonSource, js *JsonSink, _ httprouter.Params, _ url.Values, _ *http.Request) {
		now := int(time.Now().Unix())
		probeData := map[string]interface{}{}
		probeData["status"] = "healthy"
		probeData["uptime"] = now - config.StartTime
		js.pushObj(probeData)
	}))

	if config.EnableProfiler {
		app.router.Handler(http.MethodGet, "/debug/pprof/:item", http.DefaultServeMux)
	}

	if !config.DisableSafePanicHandler {
		app.router.PanicHandler = func(w http.ResponseWriter, r *http.Request, err interface{}) {
			if err, ok := err.(error); ok {
				sentry.ConfigureScope(func(scope *sentry.Scope) {
					scope.SetRequest(r)
				})
				sentry.CaptureException(err)
				sentry.ConfigureScope(func(scope *sentry.Scope) {
					scope.Clear()
				})
				returnError(w, err)
			}
		}
	}

	ms.s = &http.Server{
		Addr:           ms.addr + ":" + ms.port,
		Handler:        app,
		ReadTimeout:    60 * time.Second,
		WriteTimeout:   60 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}
	return ms.s
}

func chainForExport(chain *migrations.RevisionChain) map[string]interface{} {
	return map[string]interface{}{
		"name":       chain.Name(),
		"base":       chain.BaseRevision(),
		"head":       chain.Head(),
		"migrations": chain.Length(),
	}
}

func CreateJsonAction(f func(*JsonSource, *JsonSink, httprouter.Params, url.Values, *http.Request)) func(http.ResponseWriter, *http.Request, httprouter.Params) {
	return func(w http.ResponseWriter, req *http.Request, p httprouter.Params) {
		sink, _ := asJsonSink(w)
		src, e := (*httpRequest)(req).asJsonSource()

		if e != nil {
			returnError(w, e)
			return
		}
		if src == nil {
			src = &JsonSource{}
		}

		f(src, sink, p, req.URL.Query(), req)
	}
}

func returnError(w http.ResponseWriter, e interface{}) {
	w.Header().Set("Content-Type", "application/json")
	responseData := map[string]interface{}{"status": "FAIL"}
	switch e := e.(type) {
	case *ServerError:
		w.WriteHeader(e.Status)
		responseData["error"] = e.Serialize()
	default:
		w.WriteHeader(http.StatusInternalServerError)
		responseData["error"] = e.(error).Error()
	}
	//encoded
	encodedData, _ := json.Marshal(responseData)
	w.Write(encodedData)
}

//The source of JSON object. It contains a value of type map[string]interface{}.
type JsonSource struct {
	body   []byte
	single map[string]interface{}
	list   []map[string]interface{}
}

type httpRequest http.Request

func (js *JsonSource) GetData() interface{} {
	if js.list != nil && len(js.list) > 0 {
		return js.list
	} else {
		return js.single
	}
}

//Converts an HTTP request to the JsonSource if the request is valid and contains a valid JSON object in its body.
func (r *httpRequest) asJsonSource() (*JsonSource, error) {
	if r.Body != nil {
		smime := r.Header.Get(textproto.CanonicalMIMEHeaderKey("Content-Type"))

		if mm, _, e := mime.ParseMediaType(smime); e == nil && mm == "application/json" {
			var result JsonSource
			result.body, _ = ioutil.ReadAll(r.Body)

			if len(result.body) > 0 {
				if e := json.Unmarshal(result.body, &result.single); e != nil {
					if e = json.Unmarshal(result.body, &result.list); e != nil {
						return nil, &ServerError{Status: http.StatusBadRequest, Code: ErrBadRequest, Msg: "bad JSON", Data: e.Error()}
					}
				}
			}
			return &result, nil
		}
	}

	return nil, nil
}

//The JSON object sink into the HTTP response.
type JsonSink struct {
	rw     http.ResponseWriter
	Status string
}

//Converts http.ResponseWriter into JsonSink.
func asJsonSink(w http.ResponseWriter) (*JsonSink, error) {
	return &JsonSink{w, "OK"}, nil
}

//Push an error into JsonSink.
func (js *JsonSink) pushError(e error) {
	returnError(js.rw, e)
}

//Push an JSON object into JsonSink
func (js *JsonSink) pushObj(object interface{}) {
	responseData := map[string]interface{}{"status": js.Status}
	if object != nil {
		responseData["data"] = object
	}
	if encodedData, err := json.Marshal(responseData); err != nil {
		returnError(js.rw, err)
	} else {
		js.rw.Header().Set("Content-Type", "application/json")
		js.rw.WriteHeader(http.StatusOK)
		js.rw.Write(encodedData)
	}
}

func (js *JsonSink) pushList(objects []interface{}, total int) {
	responseData := map[string]interface{}{"status": js.Status}
	if objects == nil {
		objects = make([]interface{}, 0)
	}
	responseData["data"] = objects
	responseData["total_count"] = total

	if encodedData, err := json.Marshal(responseData); err != nil {
		returnError(js.rw, err)
	} else {
		js.rw.Header().Set("Content-Type", "application/json")
		js.rw.WriteHeader(http.StatusOK)
		js.rw.Write(encodedData)
	}
}
