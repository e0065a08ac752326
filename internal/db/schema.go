package db

// SchemaSQL contains the database schema initialization SQL.
// Source tables (slack_message, github_comment, memo) are owned by the
// connector processes and defined schemaless; the pipeline only reads them.
const SchemaSQL = `
    -- ==========================================================================
    -- TASK TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS task SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS title ON task TYPE string;
    DEFINE FIELD IF NOT EXISTS description ON task TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS priority ON task TYPE string DEFAULT "medium";
    DEFINE FIELD IF NOT EXISTS confidence ON task TYPE float DEFAULT 1.0;
    DEFINE FIELD IF NOT EXISTS due_date ON task TYPE option<datetime>;
    DEFINE FIELD IF NOT EXISTS status ON task TYPE string DEFAULT "pending"
        ASSERT $value IN ["pending", "accepted", "rejected", "completed"];
    DEFINE FIELD IF NOT EXISTS source_kind ON task TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS source_id ON task TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS similar_title ON task TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS similar_verdict ON task TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS similar_reason ON task TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON task TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS task_title ON task FIELDS title;
    DEFINE INDEX IF NOT EXISTS task_status ON task FIELDS status;
    DEFINE INDEX IF NOT EXISTS task_source ON task FIELDS source_kind, source_id;

    -- ==========================================================================
    -- DEPENDENCY EDGES
    -- ==========================================================================
    -- One edge per ordered (in, out) pair; the unique index enforces dedup
    -- at the storage level so concurrent resolvers cannot double-insert.
    DEFINE TABLE IF NOT EXISTS depends_on TYPE RELATION IN task OUT task SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS rel_type ON depends_on TYPE string
        ASSERT $value IN ["blocks", "related"];
    DEFINE FIELD IF NOT EXISTS confidence ON depends_on TYPE float DEFAULT 1.0;
    DEFINE FIELD IF NOT EXISTS reason ON depends_on TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS origin ON depends_on TYPE string DEFAULT "auto"
        ASSERT $value IN ["auto", "manual"];
    DEFINE FIELD IF NOT EXISTS created ON depends_on TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS pair_key ON depends_on VALUE string::concat(<string>in, "->", <string>out);
    DEFINE INDEX IF NOT EXISTS unique_dependency ON depends_on FIELDS pair_key UNIQUE;

    -- ==========================================================================
    -- EXTRACTION LEDGER
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS extraction_log SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS process_kind ON extraction_log TYPE string;
    DEFINE FIELD IF NOT EXISTS source_kind ON extraction_log TYPE string;
    DEFINE FIELD IF NOT EXISTS source_id ON extraction_log TYPE string;
    DEFINE FIELD IF NOT EXISTS extracted_count ON extraction_log TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS processed_at ON extraction_log TYPE datetime DEFAULT time::now();
    DEFINE INDEX IF NOT EXISTS unique_ledger_key ON extraction_log
        FIELDS process_kind, source_kind, source_id UNIQUE;

    -- ==========================================================================
    -- JOB TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS job SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS kind ON job TYPE string;
    DEFINE FIELD IF NOT EXISTS params ON job TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS status ON job TYPE string DEFAULT "queued"
        ASSERT $value IN ["queued", "running", "succeeded", "failed"];
    DEFINE FIELD IF NOT EXISTS summary ON job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS data ON job TYPE option<object> FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS error ON job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created_at ON job TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS completed_at ON job TYPE option<datetime>;

    DEFINE INDEX IF NOT EXISTS job_status ON job FIELDS status;

    -- ==========================================================================
    -- JUDGMENT TABLE (human review verdicts, feeds few-shot prompts)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS judgment SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS task_title ON judgment TYPE string;
    DEFINE FIELD IF NOT EXISTS verdict ON judgment TYPE string
        ASSERT $value IN ["accepted", "rejected"];
    DEFINE FIELD IF NOT EXISTS corrected_title ON judgment TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS reason ON judgment TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON judgment TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS judgment_verdict ON judgment FIELDS verdict;

    -- ==========================================================================
    -- SOURCE TABLES (populated by external connectors, read-only here)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS slack_message SCHEMALESS;
    DEFINE TABLE IF NOT EXISTS github_comment SCHEMALESS;
    DEFINE TABLE IF NOT EXISTS memo SCHEMALESS;
`
