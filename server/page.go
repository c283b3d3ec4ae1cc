package server

// indexPage is the embedded upload UI. It posts to /api/convert and polls job
// status until the download link becomes available.
const indexPage = `<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>deckwash</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 2rem auto; padding: 0 1rem; }
fieldset { border: 1px solid #ccc; margin-bottom: 1rem; }
progress { width: 100%; }
#phase { color: #555; font-size: 0.9rem; }
#error { color: #b00; }
</style>
</head>
<body>
<h1>deckwash</h1>
<p>Upload a PDF to remove the corner watermark and convert it to a presentation.</p>
<form id="form">
  <fieldset>
    <legend>Document</legend>
    <input type="file" name="file" accept=".pdf" required>
  </fieldset>
  <fieldset>
    <legend>Settings</legend>
    <label>Quality (DPI) <input type="number" name="dpi" value="100" min="72" max="600" step="10"></label>
    <label>Format
      <select name="format">
        <option value="pptx" selected>PPTX</option>
        <option value="pdf">PDF</option>
        <option value="epub">EPUB</option>
      </select>
    </label>
    <label>Watermark region <input type="text" name="region" value="150x35@bottom-right"></label>
  </fieldset>
  <button type="submit">Start conversion</button>
</form>
<div id="status" hidden>
  <progress id="bar" value="0" max="1"></progress>
  <div id="phase"></div>
  <div id="error"></div>
  <a id="download" hidden>Download result</a>
</div>
<script>
const form = document.getElementById("form");
form.addEventListener("submit", async (ev) => {
  ev.preventDefault();
  document.getElementById("status").hidden = false;
  document.getElementById("error").textContent = "";
  document.getElementById("download").hidden = true;

  const resp = await fetch("/api/convert", { method: "POST", body: new FormData(form) });
  const job = await resp.json();
  if (!resp.ok) {
    document.getElementById("error").textContent = job.error;
    return;
  }

  const timer = setInterval(async () => {
    const r = await fetch("/api/jobs/" + job.id);
    const j = await r.json();
    document.getElementById("bar").value = j.fraction;
    document.getElementById("phase").textContent = j.phase || j.status;
    if (j.status === "succeeded") {
      clearInterval(timer);
      const link = document.getElementById("download");
      link.href = "/api/jobs/" + job.id + "/download";
      link.hidden = false;
    } else if (j.status === "failed") {
      clearInterval(timer);
      document.getElementById("error").textContent = j.error;
    }
  }, 500);
});
</script>
</body>
</html>
`
